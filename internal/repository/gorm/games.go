package gormrepository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"lottoledger/internal/models"
)

func (s *Store) GetGame(ctx context.Context, id string) (*models.Game, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var item models.Game
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &item, nil
}

func (s *Store) SetGameResult(ctx context.Context, id string, result string) error {
	if err := s.ready(); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Game{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"result":       result,
			"clear_result": false,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListGameIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Game{}).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(normalizeLimit(limit, 500)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func (s *Store) ClearGameResultsTx(ctx context.Context, tx *gorm.DB, ids []string) (int64, error) {
	ids = cleanStrings(ids)
	if tx == nil || len(ids) == 0 {
		return 0, nil
	}
	res := tx.WithContext(ctx).Model(&models.Game{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"result":       models.ClearedResult,
			"clear_result": true,
			"updated_at":   time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
