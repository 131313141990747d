package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

type SettleRequest struct {
	GameID   string        `json:"game_id" validate:"required"`
	GameName string        `json:"game_name"`
	Window   string        `json:"window" validate:"required,oneof=open close"`
	Result   ledger.Result `json:"result"`
	// ResultString ("123-4" or "123-45-678") takes precedence over Result when set.
	ResultString string `json:"result_string"`
	// Rates override the configured payout table per gamecode.
	Rates map[string]int `json:"rates"`
	// Publish stores the result on the game before settling.
	Publish bool `json:"publish"`
}

type SettleReport struct {
	GameID        string          `json:"game_id"`
	GameName      string          `json:"game_name"`
	Window        ledger.Window   `json:"window"`
	Matched       int             `json:"matched"`
	Updated       int             `json:"updated"`
	Winners       int             `json:"winners"`
	UsersCredited int             `json:"users_credited"`
	Chunks        int             `json:"chunks"`
	TotalWon      decimal.Decimal `json:"total_won"`
	// SkippedCodes could not be settled because the result lacks their fields.
	SkippedCodes []ledger.Gamecode `json:"skipped_codes,omitempty"`
}

type SettlementService struct {
	Repo     repository.Repository
	Calendar *ledger.Calendar
	Logger   *zap.Logger
	// Rates is the default payout table keyed by gamecode.
	Rates    map[string]int
	BatchOps int
}

// Settle marks every pending bet of the game and window won or lost, then credits winners.
// Bet pages and credit chunks commit independently; a failure after some commits
// returns *ledger.PartialBatchError with the report so far.
func (s *SettlementService) Settle(ctx context.Context, req SettleRequest) (*SettleReport, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	window, _ := ledger.ParseWindow(req.Window)

	result := req.Result.Normalize()
	if strings.TrimSpace(req.ResultString) != "" {
		parsed, err := ledger.ParseResult(req.ResultString)
		if err != nil {
			return nil, err
		}
		result = parsed
	}
	ready, skipped := ledger.SettleableCodes(window, result)
	if len(ready) == 0 {
		return nil, ledger.Invalid("result has no fields for the %s window", window)
	}
	rates := s.rateTable(req.Rates)
	for _, code := range ready {
		if rates[string(code)] <= 0 {
			return nil, ledger.Invalid("no payout rate for %s", code)
		}
	}

	game, err := s.Repo.GetGame(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ledger.NotFound("game", req.GameID)
	}
	gameName := strings.TrimSpace(req.GameName)
	if gameName == "" {
		gameName = game.Name
	}
	if req.Publish {
		if err := s.Repo.SetGameResult(ctx, game.ID, result.String()); err != nil {
			return nil, err
		}
	}

	report := &SettleReport{GameID: game.ID, GameName: gameName, Window: window, TotalWon: decimal.Zero, SkippedCodes: skipped}
	var progress ledger.Progress
	codes := make([]string, 0, len(ready))
	for _, c := range ready {
		codes = append(codes, string(c))
	}

	batch := ledger.BatchOps(s.BatchOps)
	cursor := ""
	var pageErr error
	for {
		page, err := s.Repo.ListBets(ctx, repository.ActiveBets, repository.BetQuery{
			GameID:   game.ID,
			GameName: gameName,
			Status:   models.BetStatusPending,
			Side:     string(window),
			Codes:    codes,
			AfterID:  cursor,
			Limit:    batch,
		})
		if err != nil {
			pageErr = err
			break
		}
		if len(page) == 0 {
			break
		}
		cursor = page[len(page)-1].ID
		progress.Matched += len(page)

		var updated, winners int
		settledAt := time.Now().UTC()
		err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
			updated, winners = 0, 0
			for i := range page {
				bet := &page[i]
				out := repository.SettleOutcome{WinningAmount: decimal.Zero, Window: string(window), SettledAt: settledAt}
				if ledger.Evaluate(window, result, bet) {
					out.IsWinner = true
					out.WinningAmount = ledger.Payout(bet.Amount, rates[bet.Gamecode])
				}
				ok, err := s.Repo.MarkBetSettledTx(ctx, tx, bet.ID, out)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				updated++
				if out.IsWinner {
					winners++
				}
			}
			return nil
		})
		if err != nil {
			progress.ChunksFailed++
			pageErr = err
			break
		}
		progress.ChunksDone++
		progress.Updated += updated
		progress.Winners += winners
		if len(page) < batch {
			break
		}
	}

	// Winners of committed pages are credited even when a later page failed.
	pass, creditErr := reconcileWallets(ctx, s.Repo, s.Calendar, s.Logger, game.ID, gameName, batch, &progress)
	report.Matched = progress.Matched
	report.Updated = progress.Updated
	report.Winners = progress.Winners
	report.UsersCredited = pass.Credited
	report.Chunks = progress.ChunksDone
	report.TotalWon = pass.Won
	progress.UsersCredited = pass.Credited
	progress.UsersDebited = pass.Debited

	err = errors.Join(pageErr, creditErr)
	if err != nil {
		logWarn(s.Logger, "settlement stopped", err,
			zap.String("game_id", game.ID), zap.String("window", string(window)),
			zap.Int("updated", progress.Updated), zap.Int("chunks_done", progress.ChunksDone))
		return report, partial("settle", progress, err)
	}
	logInfo(s.Logger, "settlement done",
		zap.String("game_id", game.ID), zap.String("window", string(window)),
		zap.Int("matched", report.Matched), zap.Int("winners", report.Winners),
		zap.Int("users_credited", pass.Credited), zap.String("total_won", pass.Won.String()))
	return report, nil
}

func (s *SettlementService) rateTable(override map[string]int) map[string]int {
	out := make(map[string]int, len(s.Rates)+len(override))
	for code, rate := range s.Rates {
		out[strings.ToUpper(code)] = rate
	}
	for code, rate := range override {
		out[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return out
}

type walletPass struct {
	Credited int
	Debited  int
	Won      decimal.Decimal
	Taken    decimal.Decimal
}

// reconcileWallets pays uncredited winnings and takes back reverted ones for a game.
// Bet markers move in the same transaction as the wallets, so a re-run applies
// exactly what is still outstanding.
func reconcileWallets(ctx context.Context, repo repository.Repository, cal *ledger.Calendar, log *zap.Logger, gameID, gameName string, batch int, progress *ledger.Progress) (walletPass, error) {
	pass := walletPass{Won: decimal.Zero, Taken: decimal.Zero}
	var owed []models.Bet
	q := repository.BetQuery{GameID: gameID, GameName: gameName, Owed: true, Limit: batch}
	for {
		page, err := repo.ListBets(ctx, repository.ActiveBets, q)
		if err != nil {
			return pass, err
		}
		owed = append(owed, page...)
		if len(page) < batch {
			break
		}
		q.AfterID = page[len(page)-1].ID
	}
	sort.Slice(owed, func(i, j int) bool {
		if owed[i].UserID != owed[j].UserID {
			return owed[i].UserID < owed[j].UserID
		}
		return owed[i].ID < owed[j].ID
	})

	dateID := cal.CurrentBusinessDate()
	credited, debited := map[string]bool{}, map[string]bool{}
	for _, chunk := range walletChunks(owed, batch) {
		var deltas map[string]decimal.Decimal
		err := repo.InTx(ctx, func(tx *gorm.DB) error {
			var err error
			deltas, err = repo.ReconcileBetsTx(ctx, tx, chunk)
			if err != nil {
				return err
			}
			users := make([]string, 0, len(deltas))
			for uid := range deltas {
				users = append(users, uid)
			}
			sort.Strings(users)
			net := decimal.Zero
			for _, uid := range users {
				delta := deltas[uid]
				if delta.IsZero() {
					continue
				}
				user, err := repo.LockUserTx(ctx, tx, uid)
				if err != nil {
					return err
				}
				if user == nil {
					logWarn(log, "wallet owner missing", ledger.NotFound("user", uid), zap.String("user_id", uid))
					delete(deltas, uid)
					continue
				}
				if err := repo.SetWalletTx(ctx, tx, uid, user.Wallet.Add(delta)); err != nil {
					return err
				}
				net = net.Add(delta)
			}
			if net.IsZero() {
				return nil
			}
			return repo.IncrementDailyMoneyTx(ctx, tx, dateID, repository.DailyAmountWon, net)
		})
		if err != nil {
			progress.ChunksFailed++
			return pass, err
		}
		progress.ChunksDone++
		for uid, delta := range deltas {
			switch {
			case delta.IsPositive():
				credited[uid] = true
				pass.Won = pass.Won.Add(delta)
			case delta.IsNegative():
				debited[uid] = true
				pass.Taken = pass.Taken.Sub(delta)
			}
		}
		pass.Credited, pass.Debited = len(credited), len(debited)
	}
	return pass, nil
}

// walletChunks packs bet ids, sorted by owner, so that one bet row plus one
// wallet row per owner stays within batch writes.
func walletChunks(bets []models.Bet, batch int) [][]string {
	var out [][]string
	var cur []string
	ops, owner := 0, ""
	for _, b := range bets {
		cost := 1
		if len(cur) == 0 || b.UserID != owner {
			cost = 2
		}
		if len(cur) > 0 && ops+cost > batch {
			out = append(out, cur)
			cur, ops, cost = nil, 0, 2
		}
		cur = append(cur, b.ID)
		ops += cost
		owner = b.UserID
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
