package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyMoney is the rolling money counter for one business date (DD-MM-YYYY).
type DailyMoney struct {
	DateID         string          `gorm:"primaryKey;type:varchar(10)"`
	GatewayDeposit decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	AmountWon      decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (DailyMoney) TableName() string {
	return "daily_money"
}
