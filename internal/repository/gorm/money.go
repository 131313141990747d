package gormrepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

func (s *Store) IncrementDailyMoneyTx(ctx context.Context, tx *gorm.DB, dateID string, field repository.DailyMoneyField, delta decimal.Decimal) error {
	if tx == nil {
		return errors.New("nil tx")
	}
	item := models.DailyMoney{DateID: dateID}
	switch field {
	case repository.DailyGatewayDeposit:
		item.GatewayDeposit = delta
	case repository.DailyAmountWon:
		item.AmountWon = delta
	default:
		return fmt.Errorf("unknown daily money field %q", field)
	}
	column := string(field)
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			column:       gorm.Expr("daily_money."+column+" + ?", delta),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&item).Error
}

func (s *Store) GetDailyMoney(ctx context.Context, dateID string) (*models.DailyMoney, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var item models.DailyMoney
	err := s.db.WithContext(ctx).Where("date_id = ?", dateID).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &item, nil
}

func (s *Store) InsertGatewayDeposit(ctx context.Context, item *models.GatewayDeposit) error {
	if err := s.ready(); err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	return classify(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) GetGatewayDepositByClientTxnIDTx(ctx context.Context, tx *gorm.DB, clientTxnID string) (*models.GatewayDeposit, error) {
	if tx == nil {
		return nil, errors.New("nil tx")
	}
	var item models.GatewayDeposit
	err := s.forUpdate(tx.WithContext(ctx)).Where("client_txn_id = ?", clientTxnID).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CompleteGatewayDepositTx(ctx context.Context, tx *gorm.DB, id string, upd repository.GatewayDepositUpdate) (bool, error) {
	if tx == nil {
		return false, errors.New("nil tx")
	}
	updates := map[string]any{
		"payment_status": upd.Status,
		"updated_at":     time.Now().UTC(),
	}
	if upd.UPITxnID != "" {
		updates["upi_txn_id"] = upd.UPITxnID
	}
	if upd.PostBalance != nil {
		updates["post_balance"] = *upd.PostBalance
	}
	if upd.ReceivedDate != "" {
		updates["payment_received_date"] = upd.ReceivedDate
	}
	if upd.ReceivedTime != "" {
		updates["payment_received_time"] = upd.ReceivedTime
	}
	res := tx.WithContext(ctx).Model(&models.GatewayDeposit{}).
		Where("id = ? AND payment_status = ?", id, models.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
