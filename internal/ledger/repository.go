package ledger

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListTicketIDs(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, ticketID string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Insert appends an entry. A second insert with the same ticket_id is a
// no-op rather than an error, which is what makes concurrent writers safe.
func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticket_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", result.Error)
	}
	return nil
}

func (r *repository) ListTicketIDs(ctx context.Context) ([]string, error) {
	var ids []string
	result := r.db.WithContext(ctx).
		Model(&Entry{}).
		Pluck("ticket_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list ledger ticket ids: %w", result.Error)
	}
	return ids, nil
}

func (r *repository) Exists(ctx context.Context, ticketID string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&Entry{}).
		Where("ticket_id = ?", ticketID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check ledger entry: %w", result.Error)
	}
	return count > 0, nil
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&Entry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", result.Error)
	}
	return result.RowsAffected, nil
}
