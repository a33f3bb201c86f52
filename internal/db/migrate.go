package db

import (
	"predex/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Event{},
		&models.Market{},
		&models.Order{},
		&models.Position{},
		&models.Transaction{},
		&models.Trade{},
	)
}
