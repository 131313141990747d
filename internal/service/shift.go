package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

type ShiftRequest struct {
	// GameID limits the shift to one game. Empty shifts every game.
	GameID string `json:"game_id"`
}

type ShiftReport struct {
	Scanned int `json:"scanned"`
	Moved   int `json:"moved"`
	Chunks  int `json:"chunks"`
}

// ShiftService promotes settled bets from the active ledger into the completed ledger.
type ShiftService struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	BatchOps int
}

func (s *ShiftService) Shift(ctx context.Context, req ShiftRequest) (*ShiftReport, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	// Each move is a delete plus an upsert.
	q := repository.BetQuery{
		GameID:     strings.TrimSpace(req.GameID),
		Status:     models.BetStatusComplete,
		Reconciled: true,
		Limit:      ledger.RecordsPerChunk(s.BatchOps, 2),
	}
	report := &ShiftReport{}
	var progress ledger.Progress
	for {
		page, err := s.Repo.ListBets(ctx, repository.ActiveBets, q)
		if err != nil {
			return report, partial("shift", progress, err)
		}
		if len(page) == 0 {
			break
		}
		q.AfterID = page[len(page)-1].ID
		report.Scanned += len(page)

		var moved int
		err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
			moved = 0
			for _, bet := range page {
				ok, err := s.Repo.ShiftBetTx(ctx, tx, bet)
				if err != nil {
					return err
				}
				if ok {
					moved++
				}
			}
			return nil
		})
		if err != nil {
			progress.ChunksFailed++
			logWarn(s.Logger, "shift stopped", err, zap.Int("moved", report.Moved))
			return report, partial("shift", progress, err)
		}
		progress.ChunksDone++
		progress.RecordsMoved += moved
		report.Moved += moved
		report.Chunks++
		if len(page) < q.Limit {
			break
		}
	}
	logInfo(s.Logger, "shift done", zap.Int("moved", report.Moved), zap.Int("chunks", report.Chunks))
	return report, nil
}
