package models

import "time"

// ClearedResult is the placeholder result stored between business days.
const ClearedResult = "***-**-***"

type Game struct {
	ID   string `gorm:"primaryKey;type:varchar(64)"`
	Name string `gorm:"type:varchar(120);not null;index"`

	// OpenTime and CloseTime are 12-hour clock strings such as "09:00 AM".
	OpenTime  string `gorm:"type:varchar(16)"`
	CloseTime string `gorm:"type:varchar(16)"`

	Result      string `gorm:"type:varchar(16);not null;default:'***-**-***'"`
	ClearResult bool   `gorm:"not null;default:false"`
	OrderID     int    `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Game) TableName() string {
	return "games"
}
