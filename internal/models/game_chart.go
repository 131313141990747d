package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameChart aggregates stakes per number for reporting. It is never read by settlement.
type GameChart struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	DateID      string          `gorm:"type:varchar(10);not null;uniqueIndex:uq_game_chart_cell,priority:1"`
	GameName    string          `gorm:"type:varchar(120);not null;uniqueIndex:uq_game_chart_cell,priority:2"`
	Gamecode    string          `gorm:"type:varchar(4);not null;uniqueIndex:uq_game_chart_cell,priority:3"`
	Number      string          `gorm:"type:varchar(8);not null;uniqueIndex:uq_game_chart_cell,priority:4"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (GameChart) TableName() string {
	return "game_charts"
}
