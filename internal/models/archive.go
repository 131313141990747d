package models

import (
	"time"

	"gorm.io/datatypes"
)

// ArchivePartition is the summary row of one (kind, business date) archive partition.
// Counters only ever grow; each migration chunk adds its own counts.
type ArchivePartition struct {
	Kind          string `gorm:"primaryKey;type:varchar(32)"`
	ArchiveDate   string `gorm:"primaryKey;type:varchar(10)"`
	Scanned       int64  `gorm:"not null;default:0"`
	Archived      int64  `gorm:"not null;default:0"`
	WrittenToUser int64  `gorm:"not null;default:0"`
	Deleted       int64  `gorm:"not null;default:0"`
	MissingOwner  int64  `gorm:"not null;default:0"`
	Commits       int64  `gorm:"not null;default:0"`
	LastRunAt     *time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (ArchivePartition) TableName() string {
	return "archive_partitions"
}

// ArchiveRecord is a full copy of a source row. Writes overwrite by (kind, date, record id).
type ArchiveRecord struct {
	Kind        string         `gorm:"primaryKey;type:varchar(32)"`
	ArchiveDate string         `gorm:"primaryKey;type:varchar(10)"`
	RecordID    string         `gorm:"primaryKey;type:varchar(64)"`
	OwnerID     string         `gorm:"type:varchar(64);index"`
	Payload     datatypes.JSON `gorm:"not null"`
	MigratedAt  time.Time
}

func (ArchiveRecord) TableName() string {
	return "archive_records"
}

// UserHistory is the per-user read-only projection of archived records.
type UserHistory struct {
	UserID      string         `gorm:"primaryKey;type:varchar(64)"`
	Kind        string         `gorm:"primaryKey;type:varchar(32)"`
	RecordID    string         `gorm:"primaryKey;type:varchar(64)"`
	ArchiveDate string         `gorm:"type:varchar(10);index"`
	Payload     datatypes.JSON `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (UserHistory) TableName() string {
	return "user_history"
}
