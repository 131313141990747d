package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

func (s *Store) InsertBetsTx(ctx context.Context, tx *gorm.DB, bets []models.Bet) error {
	if tx == nil {
		return errors.New("nil tx")
	}
	if len(bets) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(bets, ledger.MaxBatchOps).Error
}

func (s *Store) ListBets(ctx context.Context, table repository.BetTable, q repository.BetQuery) ([]models.Bet, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx)
	switch table {
	case repository.ActiveBets:
		query = query.Model(&models.Bet{})
	case repository.CompletedBets:
		query = query.Model(&models.CompletedBet{})
	default:
		return nil, errors.New("unknown bet table " + string(table))
	}
	if v := strings.TrimSpace(q.GameID); v != "" {
		query = query.Where("game_id = ?", v)
	}
	if v := strings.TrimSpace(q.GameName); v != "" {
		query = query.Where("game_name = ?", v)
	}
	if v := strings.TrimSpace(q.Status); v != "" {
		query = query.Where("resultstatus = ?", v)
	}
	switch strings.TrimSpace(q.Side) {
	case string(ledger.WindowOpen):
		query = query.Where("open = ?", true)
	case string(ledger.WindowClose):
		query = query.Where("close = ?", true)
	}
	if codes := cleanStrings(q.Codes); len(codes) > 0 {
		query = query.Where("gamecode IN ?", codes)
	}
	if q.Owed {
		query = query.Scopes(owedScope)
	}
	if q.Reconciled {
		query = query.Scopes(reconciledScope)
	}
	if q.AfterID != "" {
		query = query.Where("id > ?", q.AfterID)
	}
	query = query.Order("id asc").Limit(normalizeLimit(q.Limit, ledger.MaxBatchOps))

	if table == repository.CompletedBets {
		var rows []models.CompletedBet
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		out := make([]models.Bet, 0, len(rows))
		for _, row := range rows {
			out = append(out, row.Bet)
		}
		return out, nil
	}
	var rows []models.Bet
	if err := query.Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (s *Store) MarkBetSettledTx(ctx context.Context, tx *gorm.DB, id string, out repository.SettleOutcome) (bool, error) {
	if tx == nil {
		return false, errors.New("nil tx")
	}
	settledAt := out.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now().UTC()
	}
	res := tx.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND resultstatus = ?", id, models.BetStatusPending).
		Updates(map[string]any{
			"resultstatus":   models.BetStatusComplete,
			"is_winner":      out.IsWinner,
			"winning_amount": out.WinningAmount,
			"settled_window": out.Window,
			"settled_at":     settledAt,
			"credited":       false,
			"updated_at":     settledAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func unsettledColumns() map[string]any {
	return map[string]any{
		"resultstatus":   models.BetStatusPending,
		"is_winner":      false,
		"winning_amount": decimal.Zero,
		"settled_window": "",
		"settled_at":     nil,
		"credited":       false,
		"updated_at":     time.Now().UTC(),
	}
}

// owedScope keeps bets with uncredited winnings or reverted winnings not yet debited.
func owedScope(db *gorm.DB) *gorm.DB {
	return db.Where("((is_winner = ? AND credited = ? AND resultstatus = ?) OR debit_due <> 0)",
		true, false, models.BetStatusComplete)
}

func reconciledScope(db *gorm.DB) *gorm.DB {
	return db.Where("(is_winner = ? OR credited = ?) AND debit_due = 0", false, true)
}

// creditedWinnings is what a revert has to take back from the wallet.
func creditedWinnings(b models.Bet) decimal.Decimal {
	if b.IsWinner && b.Credited {
		return b.WinningAmount
	}
	return decimal.Zero
}

func (s *Store) ResetActiveBetTx(ctx context.Context, tx *gorm.DB, id string) (bool, decimal.Decimal, error) {
	if tx == nil {
		return false, decimal.Zero, errors.New("nil tx")
	}
	var row models.Bet
	err := s.forUpdate(tx.WithContext(ctx)).
		Where("id = ? AND resultstatus = ?", id, models.BetStatusComplete).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, decimal.Zero, nil
	}
	if err != nil {
		return false, decimal.Zero, err
	}
	due := creditedWinnings(row)
	cols := unsettledColumns()
	cols["debit_due"] = row.DebitDue.Add(due)
	res := tx.WithContext(ctx).Model(&models.Bet{}).
		Where("id = ? AND resultstatus = ?", id, models.BetStatusComplete).
		Updates(cols)
	if res.Error != nil {
		return false, decimal.Zero, res.Error
	}
	if res.RowsAffected != 1 {
		return false, decimal.Zero, nil
	}
	return true, due, nil
}

// RestoreCompletedBetTx moves a settled bet back into the active ledger as pending.
func (s *Store) RestoreCompletedBetTx(ctx context.Context, tx *gorm.DB, id string) (bool, decimal.Decimal, error) {
	if tx == nil {
		return false, decimal.Zero, errors.New("nil tx")
	}
	var row models.CompletedBet
	err := s.forUpdate(tx.WithContext(ctx)).
		Where("id = ? AND resultstatus = ?", id, models.BetStatusComplete).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, decimal.Zero, nil
	}
	if err != nil {
		return false, decimal.Zero, err
	}
	res := tx.WithContext(ctx).Where("id = ?", id).Delete(&models.CompletedBet{})
	if res.Error != nil {
		return false, decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return false, decimal.Zero, nil
	}
	bet := row.Bet
	due := creditedWinnings(bet)
	bet.ResultStatus = models.BetStatusPending
	bet.IsWinner = false
	bet.WinningAmount = decimal.Zero
	bet.SettledWindow = ""
	bet.SettledAt = nil
	bet.Credited = false
	bet.DebitDue = bet.DebitDue.Add(due)
	err = tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&bet).Error
	if err != nil {
		return false, decimal.Zero, err
	}
	return true, due, nil
}

// ShiftBetTx moves a settled bet from the active ledger to the completed ledger.
func (s *Store) ShiftBetTx(ctx context.Context, tx *gorm.DB, bet models.Bet) (bool, error) {
	if tx == nil {
		return false, errors.New("nil tx")
	}
	res := tx.WithContext(ctx).
		Scopes(reconciledScope).
		Where("id = ? AND resultstatus = ?", bet.ID, models.BetStatusComplete).
		Delete(&models.Bet{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	row := models.CompletedBet{Bet: bet}
	err := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ReconcileBetsTx(ctx context.Context, tx *gorm.DB, ids []string) (map[string]decimal.Decimal, error) {
	if tx == nil {
		return nil, errors.New("nil tx")
	}
	out := map[string]decimal.Decimal{}
	ids = cleanStrings(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Bet
	err := s.forUpdate(tx.WithContext(ctx)).
		Scopes(owedScope).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	var credited, cleared []string
	for _, b := range rows {
		delta := b.DebitDue.Neg()
		if b.IsWinner && !b.Credited && b.ResultStatus == models.BetStatusComplete {
			delta = delta.Add(b.WinningAmount)
			credited = append(credited, b.ID)
		}
		if !b.DebitDue.IsZero() {
			cleared = append(cleared, b.ID)
		}
		out[b.UserID] = out[b.UserID].Add(delta)
	}
	now := time.Now().UTC()
	if len(credited) > 0 {
		err := tx.WithContext(ctx).Model(&models.Bet{}).Where("id IN ?", credited).
			Updates(map[string]any{"credited": true, "updated_at": now}).Error
		if err != nil {
			return nil, err
		}
	}
	if len(cleared) > 0 {
		err := tx.WithContext(ctx).Model(&models.Bet{}).Where("id IN ?", cleared).
			Updates(map[string]any{"debit_due": decimal.Zero, "updated_at": now}).Error
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) IncrementChart(ctx context.Context, cell repository.ChartCell, amount decimal.Decimal) error {
	if err := s.ready(); err != nil {
		return err
	}
	item := models.GameChart{
		DateID:      cell.DateID,
		GameName:    cell.GameName,
		Gamecode:    cell.Gamecode,
		Number:      cell.Number,
		TotalAmount: amount,
	}
	return classify(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date_id"}, {Name: "game_name"}, {Name: "gamecode"}, {Name: "number"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_amount": gorm.Expr("game_charts.total_amount + ?", amount),
			"updated_at":   time.Now().UTC(),
		}),
	}).Create(&item).Error)
}
