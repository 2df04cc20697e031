package database

import (
	"ticketgate/internal/ledger"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&ledger.Entry{}); err != nil {
		return err
	}
	return migrateConstraints(db)
}
