package database

import (
	"gorm.io/gorm"
)

// migrateConstraints adds the indexes the ledger's dedup and prune paths
// rely on. The unique ticket_id constraint is what makes concurrent ledger
// writers safe without any locking: duplicate appends are simply ignored.
func migrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_ticket_id
		ON cancelled_tickets (ticket_id);
	`).Error
	if err != nil {
		return err
	}

	// Prune deletes by recorded_at; keep that scan cheap.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_ledger_recorded_at
		ON cancelled_tickets (recorded_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
