package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one cancelled-ticket record. The ledger compensates for the
// upstream backend reporting cancellation state inconsistently across its
// status fields: once a ticket is known cancelled here, it never reappears
// in an active ticket list regardless of what the backend says.
//
// Entries are append-only and deduplicated by TicketID. They are never
// edited, only pruned once older than the retention window.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketID   string    `gorm:"uniqueIndex;not null" json:"ticket_id"`
	OrderID    string    `gorm:"index;not null" json:"order_id"`
	RecordedAt time.Time `gorm:"index;not null" json:"recorded_at"`
}

// TableName sets the table name for Entry
func (Entry) TableName() string {
	return "cancelled_tickets"
}
