package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/repository"
)

// GameResultService publishes and clears the result strings shown on games.
type GameResultService struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	BatchOps int
}

func (s *GameResultService) Publish(ctx context.Context, gameID, raw string) (ledger.Result, error) {
	if s == nil || s.Repo == nil {
		return ledger.Result{}, ledger.StoreUnavailable(nil)
	}
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return ledger.Result{}, ledger.Invalid("game id is required")
	}
	res, err := ledger.ParseResult(raw)
	if err != nil {
		return ledger.Result{}, err
	}
	if err := s.Repo.SetGameResult(ctx, gameID, res.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.Result{}, ledger.NotFound("game", gameID)
		}
		return ledger.Result{}, err
	}
	return res, nil
}

// ClearResults resets every game to the cleared placeholder, one chunk per transaction.
func (s *GameResultService) ClearResults(ctx context.Context) (int64, error) {
	if s == nil || s.Repo == nil {
		return 0, ledger.StoreUnavailable(nil)
	}
	var (
		cleared  int64
		progress ledger.Progress
		cursor   string
	)
	batch := ledger.BatchOps(s.BatchOps)
	for {
		ids, err := s.Repo.ListGameIDsAfter(ctx, cursor, batch)
		if err != nil {
			return cleared, partial("clear results", progress, err)
		}
		if len(ids) == 0 {
			break
		}
		cursor = ids[len(ids)-1]
		var n int64
		err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
			var err error
			n, err = s.Repo.ClearGameResultsTx(ctx, tx, ids)
			return err
		})
		if err != nil {
			progress.ChunksFailed++
			return cleared, partial("clear results", progress, err)
		}
		progress.ChunksDone++
		cleared += n
		if len(ids) < batch {
			break
		}
	}
	logInfo(s.Logger, "game results cleared", zap.Int64("games", cleared))
	return cleared, nil
}
