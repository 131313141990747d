package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lottoledger/internal/models"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var item models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &item, nil
}

func (s *Store) LockUserTx(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	if tx == nil {
		return nil, errors.New("nil tx")
	}
	var item models.User
	err := s.forUpdate(tx.WithContext(ctx)).Where("id = ?", id).Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) SetWalletTx(ctx context.Context, tx *gorm.DB, id string, wallet decimal.Decimal) error {
	if tx == nil {
		return errors.New("nil tx")
	}
	res := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"wallet":     wallet,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
