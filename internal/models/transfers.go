package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const WithdrawalCompleted = "completed"

type WithdrawalRequest struct {
	ID             string          `gorm:"primaryKey;type:varchar(64)"`
	RequestedByUID string          `gorm:"column:requested_by_uid;type:varchar(64);index"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Method         string          `gorm:"type:varchar(32)"`
	AccountDetails string          `gorm:"type:text"`
	Status         string          `gorm:"type:varchar(16);not null;index"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// ManualDeposit and ManualWithdrawal are operator-entered adjustments; they archive without a user projection.
type ManualDeposit struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)"`
	UserID    string          `gorm:"type:varchar(64);index"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Note      string          `gorm:"type:text"`
	CreatedBy string          `gorm:"type:varchar(64)"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (ManualDeposit) TableName() string {
	return "manual_deposits"
}

type ManualWithdrawal struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)"`
	UserID    string          `gorm:"type:varchar(64);index"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Note      string          `gorm:"type:text"`
	CreatedBy string          `gorm:"type:varchar(64)"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

func (ManualWithdrawal) TableName() string {
	return "manual_withdrawals"
}
