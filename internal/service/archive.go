package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

type MigrateRequest struct {
	Kind string `json:"kind" validate:"required"`
	// ArchiveDate (DD-MM-YYYY) defaults to the previous business date.
	ArchiveDate string `json:"archive_date"`
}

type MigrateReport struct {
	Kind          repository.ArchiveKind `json:"kind"`
	ArchiveDate   string                 `json:"archive_date"`
	Scanned       int64                  `json:"scanned"`
	Archived      int64                  `json:"archived"`
	WrittenToUser int64                  `json:"written_to_user"`
	Deleted       int64                  `json:"deleted"`
	MissingOwner  int64                  `json:"missing_owner"`
	Chunks        int                    `json:"chunks"`
}

// ArchiveService drains "today" tables into date-partitioned archives and the per-user history.
type ArchiveService struct {
	Repo     repository.Repository
	Calendar *ledger.Calendar
	Logger   *zap.Logger
	BatchOps int
}

func (s *ArchiveService) Migrate(ctx context.Context, req MigrateRequest) (*MigrateReport, error) {
	if s == nil || s.Repo == nil {
		return nil, ledger.StoreUnavailable(nil)
	}
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	spec, ok := repository.LookupArchiveSpec(strings.TrimSpace(req.Kind))
	if !ok {
		return nil, ledger.Invalid("unknown archive kind %q", req.Kind)
	}
	date := strings.TrimSpace(req.ArchiveDate)
	if date == "" {
		date = s.Calendar.PreviousBusinessDate()
	} else if _, err := time.Parse(ledger.DateIDLayout, date); err != nil {
		return nil, ledger.Invalid("archive date %q must be DD-MM-YYYY", date)
	}

	size := ledger.RecordsPerChunk(s.BatchOps, spec.OpsPerRecord())
	report := &MigrateReport{Kind: spec.Kind, ArchiveDate: date}
	var progress ledger.Progress
	cursor := ""
	for {
		items, err := s.Repo.ListArchiveCandidates(ctx, spec.Kind, cursor, size)
		if err != nil {
			return report, s.stop(report, progress, err)
		}
		if len(items) == 0 {
			break
		}
		cursor = items[len(items)-1].ID

		var counts repository.ArchiveCounts
		now := time.Now().UTC()
		err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
			c, err := s.Repo.CommitArchiveChunkTx(ctx, tx, spec.Kind, date, items, now)
			counts = c
			return err
		})
		if err != nil {
			progress.ChunksFailed++
			return report, s.stop(report, progress, err)
		}
		progress.ChunksDone++
		progress.RecordsMoved += int(counts.Archived)
		progress.RecordsDeleted += int(counts.Deleted)
		report.Scanned += counts.Scanned
		report.Archived += counts.Archived
		report.WrittenToUser += counts.WrittenToUser
		report.Deleted += counts.Deleted
		report.MissingOwner += counts.MissingOwner
		report.Chunks++
		if len(items) < size {
			break
		}
	}
	logInfo(s.Logger, "archive done",
		zap.String("kind", string(spec.Kind)), zap.String("archive_date", date),
		zap.Int64("archived", report.Archived), zap.Int64("written_to_user", report.WrittenToUser),
		zap.Int64("missing_owner", report.MissingOwner), zap.Int("chunks", report.Chunks))
	return report, nil
}

func (s *ArchiveService) stop(report *MigrateReport, progress ledger.Progress, err error) error {
	logWarn(s.Logger, "archive stopped", err,
		zap.String("kind", string(report.Kind)), zap.String("archive_date", report.ArchiveDate),
		zap.Int("chunks_done", progress.ChunksDone))
	return partial("archive "+string(report.Kind), progress, err)
}

// MigrateAll runs every archive kind for one date. A failing kind does not stop the others.
func (s *ArchiveService) MigrateAll(ctx context.Context, archiveDate string) ([]*MigrateReport, error) {
	var reports []*MigrateReport
	var errs []error
	for _, spec := range repository.ArchiveSpecs {
		rep, err := s.Migrate(ctx, MigrateRequest{Kind: string(spec.Kind), ArchiveDate: archiveDate})
		if rep != nil {
			reports = append(reports, rep)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

func (s *ArchiveService) Partition(ctx context.Context, kind, archiveDate string) (*models.ArchivePartition, error) {
	spec, ok := repository.LookupArchiveSpec(strings.TrimSpace(kind))
	if !ok {
		return nil, ledger.Invalid("unknown archive kind %q", kind)
	}
	p, err := s.Repo.GetArchivePartition(ctx, spec.Kind, archiveDate)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ledger.NotFound("archive partition", string(spec.Kind)+"/"+archiveDate)
	}
	return p, nil
}

// History lists a user's archived records, most recently archived first.
func (s *ArchiveService) History(ctx context.Context, userID, kind string, limit, offset int) ([]models.UserHistory, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ledger.Invalid("user id is required")
	}
	return s.Repo.ListUserHistory(ctx, repository.ListUserHistoryParams{
		UserID: userID,
		Kind:   strings.TrimSpace(kind),
		Limit:  limit,
		Offset: offset,
	})
}
