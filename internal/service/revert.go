package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

type RevertRequest struct {
	GameID   string `json:"game_id" validate:"required"`
	GameName string `json:"game_name" validate:"required"`
	// Window limits the revert to one side and the codes that window settles. Empty means both.
	Window string `json:"window" validate:"omitempty,oneof=open close"`
}

type RevertReport struct {
	GameID       string          `json:"game_id"`
	GameName     string          `json:"game_name"`
	Window       ledger.Window   `json:"window,omitempty"`
	Matched      int             `json:"matched"`
	Restored     int             `json:"restored"`
	UsersDebited int             `json:"users_debited"`
	Chunks       int             `json:"chunks"`
	TotalDebited decimal.Decimal `json:"total_debited"`
}

type RevertService struct {
	Repo        repository.Repository
	Calendar    *ledger.Calendar
	Logger      *zap.Logger
	BatchOps    int
	Concurrency int
}

// Revert returns complete bets of a game to pending and takes back their winnings.
// Pending bets are never touched.
func (s *RevertService) Revert(ctx context.Context, req RevertRequest) (*RevertReport, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	req.GameID = strings.TrimSpace(req.GameID)
	req.GameName = strings.TrimSpace(req.GameName)
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	base := repository.BetQuery{
		GameID:   req.GameID,
		GameName: req.GameName,
		Status:   models.BetStatusComplete,
		Limit:    ledger.BatchOps(s.BatchOps),
	}
	var window ledger.Window
	if w, ok := ledger.ParseWindow(req.Window); ok {
		window = w
		base.Side = string(w)
		for _, c := range ledger.WindowCodes(w) {
			base.Codes = append(base.Codes, string(c))
		}
	}

	var (
		mu       sync.Mutex
		progress ledger.Progress
	)
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var listErr error
	for _, table := range []repository.BetTable{repository.ActiveBets, repository.CompletedBets} {
		q := base
		for gctx.Err() == nil {
			page, err := s.Repo.ListBets(ctx, table, q)
			if err != nil {
				listErr = err
				break
			}
			if len(page) == 0 {
				break
			}
			q.AfterID = page[len(page)-1].ID
			mu.Lock()
			progress.Matched += len(page)
			mu.Unlock()

			table := table
			g.Go(func() error {
				restored, err := s.restorePage(gctx, table, page)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					progress.ChunksFailed++
					return err
				}
				progress.ChunksDone++
				progress.Updated += restored
				return nil
			})
			if len(page) < q.Limit {
				break
			}
		}
		if listErr != nil {
			break
		}
	}
	pageErr := errors.Join(g.Wait(), listErr)

	// Winnings of restored pages are taken back even when another page failed.
	pass, debitErr := reconcileWallets(ctx, s.Repo, s.Calendar, s.Logger, req.GameID, req.GameName, base.Limit, &progress)
	progress.UsersDebited = pass.Debited
	progress.UsersCredited = pass.Credited

	report := &RevertReport{
		GameID:       req.GameID,
		GameName:     req.GameName,
		Window:       window,
		Matched:      progress.Matched,
		Restored:     progress.Updated,
		UsersDebited: pass.Debited,
		Chunks:       progress.ChunksDone,
		TotalDebited: pass.Taken,
	}
	if err := errors.Join(pageErr, debitErr); err != nil {
		logWarn(s.Logger, "revert stopped", err,
			zap.String("game_id", req.GameID), zap.Int("restored", progress.Updated), zap.Int("chunks_done", progress.ChunksDone))
		return report, partial("revert", progress, err)
	}
	logInfo(s.Logger, "revert done",
		zap.String("game_id", req.GameID), zap.String("window", string(window)),
		zap.Int("restored", report.Restored), zap.Int("users_debited", pass.Debited), zap.String("total_debited", pass.Taken.String()))
	return report, nil
}

// restorePage resets one page in a single transaction. Credited winnings become
// debit_due on the bet for the wallet pass.
func (s *RevertService) restorePage(ctx context.Context, table repository.BetTable, page []models.Bet) (int, error) {
	var restored int
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		restored = 0
		for _, bet := range page {
			var ok bool
			var err error
			if table == repository.CompletedBets {
				ok, _, err = s.Repo.RestoreCompletedBetTx(ctx, tx, bet.ID)
			} else {
				ok, _, err = s.Repo.ResetActiveBetTx(ctx, tx, bet.ID)
			}
			if err != nil {
				return err
			}
			if ok {
				restored++
			}
		}
		return nil
	})
	return restored, err
}
