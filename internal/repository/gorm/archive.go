package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lottoledger/internal/ledger"
	"lottoledger/internal/models"
	"lottoledger/internal/repository"
)

// archiveSource binds an archive kind to its source table and ownership column.
type archiveSource struct {
	model any
	// filter is applied on top of the id cursor; empty means every row.
	filter     string
	filterArgs []any
}

func sourceFor(kind repository.ArchiveKind) (archiveSource, error) {
	switch kind {
	case repository.ArchiveBets:
		return archiveSource{model: &models.CompletedBet{}}, nil
	case repository.ArchiveWithdrawals:
		return archiveSource{model: &models.WithdrawalRequest{}, filter: "status = ?", filterArgs: []any{models.WithdrawalCompleted}}, nil
	case repository.ArchiveGatewayDeposits:
		return archiveSource{model: &models.GatewayDeposit{}, filter: "payment_status <> ?", filterArgs: []any{models.PaymentPending}}, nil
	case repository.ArchiveManualDeposits:
		return archiveSource{model: &models.ManualDeposit{}}, nil
	case repository.ArchiveManualWithdrawals:
		return archiveSource{model: &models.ManualWithdrawal{}}, nil
	}
	return archiveSource{}, fmt.Errorf("unknown archive kind %q", kind)
}

func (s *Store) ListArchiveCandidates(ctx context.Context, kind repository.ArchiveKind, afterID string, limit int) ([]repository.ArchiveItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	src, err := sourceFor(kind)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(src.model).Where("id > ?", afterID)
	if src.filter != "" {
		query = query.Where(src.filter, src.filterArgs...)
	}
	query = query.Order("id asc").Limit(normalizeLimit(limit, ledger.MaxBatchOps))

	switch kind {
	case repository.ArchiveBets:
		var rows []models.CompletedBet
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		return toArchiveItems(rows, func(r models.CompletedBet) (string, string) { return r.ID, r.UserID })
	case repository.ArchiveWithdrawals:
		var rows []models.WithdrawalRequest
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		return toArchiveItems(rows, func(r models.WithdrawalRequest) (string, string) { return r.ID, r.RequestedByUID })
	case repository.ArchiveGatewayDeposits:
		var rows []models.GatewayDeposit
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		return toArchiveItems(rows, func(r models.GatewayDeposit) (string, string) { return r.ID, r.UserID })
	case repository.ArchiveManualDeposits:
		var rows []models.ManualDeposit
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		return toArchiveItems(rows, func(r models.ManualDeposit) (string, string) { return r.ID, r.UserID })
	default:
		var rows []models.ManualWithdrawal
		if err := query.Find(&rows).Error; err != nil {
			return nil, classify(err)
		}
		return toArchiveItems(rows, func(r models.ManualWithdrawal) (string, string) { return r.ID, r.UserID })
	}
}

func toArchiveItems[T any](rows []T, key func(T) (string, string)) ([]repository.ArchiveItem, error) {
	out := make([]repository.ArchiveItem, 0, len(rows))
	for _, row := range rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		id, owner := key(row)
		out = append(out, repository.ArchiveItem{ID: id, OwnerID: owner, Payload: payload})
	}
	return out, nil
}

// CommitArchiveChunkTx writes archive copies and user projections, deletes the
// sources, and adds this chunk's counts to the partition summary.
func (s *Store) CommitArchiveChunkTx(ctx context.Context, tx *gorm.DB, kind repository.ArchiveKind, archiveDate string, items []repository.ArchiveItem, at time.Time) (repository.ArchiveCounts, error) {
	var counts repository.ArchiveCounts
	if tx == nil {
		return counts, errors.New("nil tx")
	}
	spec, ok := repository.LookupArchiveSpec(string(kind))
	if !ok {
		return counts, fmt.Errorf("unknown archive kind %q", kind)
	}
	src, err := sourceFor(kind)
	if err != nil {
		return counts, err
	}
	if len(items) == 0 {
		return counts, nil
	}
	tx = tx.WithContext(ctx)
	counts.Scanned = int64(len(items))

	records := make([]models.ArchiveRecord, 0, len(items))
	history := make([]models.UserHistory, 0, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
		records = append(records, models.ArchiveRecord{
			Kind:        string(kind),
			ArchiveDate: archiveDate,
			RecordID:    item.ID,
			OwnerID:     item.OwnerID,
			Payload:     datatypes.JSON(item.Payload),
			MigratedAt:  at,
		})
		if spec.HistoryKind == "" {
			continue
		}
		if item.OwnerID == "" {
			counts.MissingOwner++
			continue
		}
		history = append(history, models.UserHistory{
			UserID:      item.OwnerID,
			Kind:        spec.HistoryKind,
			RecordID:    item.ID,
			ArchiveDate: archiveDate,
			Payload:     datatypes.JSON(item.Payload),
		})
	}

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "archive_date"}, {Name: "record_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner_id", "payload", "migrated_at"}),
	}).Create(&records).Error
	if err != nil {
		return counts, err
	}
	counts.Archived = int64(len(records))

	if len(history) > 0 {
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}, {Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"archive_date", "payload", "updated_at"}),
		}).Create(&history).Error
		if err != nil {
			return counts, err
		}
		counts.WrittenToUser = int64(len(history))
	}

	res := tx.Where("id IN ?", ids).Delete(src.model)
	if res.Error != nil {
		return counts, res.Error
	}
	counts.Deleted = res.RowsAffected

	summary := models.ArchivePartition{
		Kind:          string(kind),
		ArchiveDate:   archiveDate,
		Scanned:       counts.Scanned,
		Archived:      counts.Archived,
		WrittenToUser: counts.WrittenToUser,
		Deleted:       counts.Deleted,
		MissingOwner:  counts.MissingOwner,
		Commits:       1,
		LastRunAt:     &at,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}, {Name: "archive_date"}},
		DoUpdates: clause.Assignments(map[string]any{
			"scanned":         gorm.Expr("archive_partitions.scanned + ?", counts.Scanned),
			"archived":        gorm.Expr("archive_partitions.archived + ?", counts.Archived),
			"written_to_user": gorm.Expr("archive_partitions.written_to_user + ?", counts.WrittenToUser),
			"deleted":         gorm.Expr("archive_partitions.deleted + ?", counts.Deleted),
			"missing_owner":   gorm.Expr("archive_partitions.missing_owner + ?", counts.MissingOwner),
			"commits":         gorm.Expr("archive_partitions.commits + 1"),
			"last_run_at":     at,
			"updated_at":      at,
		}),
	}).Create(&summary).Error
	if err != nil {
		return counts, err
	}
	return counts, nil
}

func (s *Store) GetArchivePartition(ctx context.Context, kind repository.ArchiveKind, archiveDate string) (*models.ArchivePartition, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var item models.ArchivePartition
	err := s.db.WithContext(ctx).Where("kind = ? AND archive_date = ?", string(kind), archiveDate).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &item, nil
}

func (s *Store) ListUserHistory(ctx context.Context, params repository.ListUserHistoryParams) ([]models.UserHistory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Model(&models.UserHistory{}).Where("user_id = ?", params.UserID)
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}
	var items []models.UserHistory
	err := query.Order("updated_at desc").Order("record_id asc").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}
