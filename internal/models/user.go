package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds the authoritative wallet balance. Wallet is only written inside a store transaction.
type User struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)"`
	Name      string          `gorm:"type:varchar(120)"`
	Phone     string          `gorm:"type:varchar(32)"`
	Wallet    decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
