package db

import (
	"lottoledger/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Game{},
		&models.Bet{},
		&models.CompletedBet{},
		&models.GameChart{},
		&models.DailyMoney{},
		&models.GatewayDeposit{},
		&models.WithdrawalRequest{},
		&models.ManualDeposit{},
		&models.ManualWithdrawal{},
		&models.ArchivePartition{},
		&models.ArchiveRecord{},
		&models.UserHistory{},
		&models.SystemSetting{},
	)
}
