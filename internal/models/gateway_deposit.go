package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailure = "failure"
)

// GatewayDeposit tracks one add-money order from creation to the gateway callback.
type GatewayDeposit struct {
	ID          string `gorm:"primaryKey;type:varchar(64)"`
	ClientTxnID string `gorm:"type:varchar(64);not null;uniqueIndex"`
	UserID      string `gorm:"type:varchar(64);not null;index"`
	Username    string `gorm:"type:varchar(120)"`
	Mobile      string `gorm:"type:varchar(32)"`

	Amount      decimal.Decimal  `gorm:"type:numeric(20,2);not null"`
	PreBalance  decimal.Decimal  `gorm:"type:numeric(20,2);not null"`
	PostBalance *decimal.Decimal `gorm:"type:numeric(20,2)"`

	PaymentStatus       string `gorm:"type:varchar(16);not null;default:'pending';index"`
	UPITxnID            string `gorm:"column:upi_txn_id;type:varchar(64)"`
	PaymentReceivedDate string `gorm:"type:varchar(10)"`
	PaymentReceivedTime string `gorm:"type:varchar(16)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (GatewayDeposit) TableName() string {
	return "gateway_deposits"
}
