package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BetStatusPending  = "pending"
	BetStatusComplete = "complete"
)

// Bet is one wager in the active ledger. Open and Close are mutually exclusive.
type Bet struct {
	ID       string `gorm:"primaryKey;type:varchar(64)"`
	UserID   string `gorm:"type:varchar(64);not null;index"`
	Username string `gorm:"type:varchar(120)"`
	Mobile   string `gorm:"type:varchar(32)"`
	GameID   string `gorm:"type:varchar(64);not null;index"`
	GameName string `gorm:"type:varchar(120);not null"`
	Gamecode string `gorm:"type:varchar(4);not null;index"`
	Open     bool   `gorm:"not null;default:false"`
	Close    bool   `gorm:"not null;default:false"`

	SDNumber     string `gorm:"column:sd_number;type:varchar(8)"`
	JDNumber     string `gorm:"column:jd_number;type:varchar(8)"`
	SPNumber     string `gorm:"column:sp_number;type:varchar(8)"`
	DPNumber     string `gorm:"column:dp_number;type:varchar(8)"`
	TPNumber     string `gorm:"column:tp_number;type:varchar(8)"`
	HSOpenDigit  string `gorm:"column:hs_open_digit;type:varchar(8)"`
	HSClosePana  string `gorm:"column:hs_close_pana;type:varchar(8)"`
	HSCloseDigit string `gorm:"column:hs_close_digit;type:varchar(8)"`
	HSOpenPana   string `gorm:"column:hs_open_pana;type:varchar(8)"`
	FSOpenPana   string `gorm:"column:fs_open_pana;type:varchar(8)"`
	FSClosePana  string `gorm:"column:fs_close_pana;type:varchar(8)"`

	Amount      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PreBalance  decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	PostBalance decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	ResultStatus  string          `gorm:"column:resultstatus;type:varchar(16);not null;default:'pending';index"`
	IsWinner      bool            `gorm:"not null;default:false"`
	WinningAmount decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	SettledWindow string          `gorm:"type:varchar(8)"`
	SettledAt     *time.Time

	// Credited is set once WinningAmount has reached the wallet.
	Credited bool `gorm:"not null;default:false"`
	// DebitDue holds reverted winnings still to be taken back from the wallet.
	DebitDue decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Bet) TableName() string {
	return "active_bets"
}

// Side reports "close" for close-side bets and "open" otherwise.
func (b Bet) Side() string {
	if b.Close {
		return "close"
	}
	return "open"
}

// CompletedBet is a settled bet shifted out of the active ledger, waiting for archival.
type CompletedBet struct {
	Bet
}

func (CompletedBet) TableName() string {
	return "completed_bets"
}
