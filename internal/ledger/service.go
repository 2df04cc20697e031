package ledger

import (
	"context"
	"time"

	"ticketgate/pkg/logger"
)

type Service interface {
	// Record appends a cancelled ticket. Recording the same ticket twice
	// leaves exactly one entry.
	Record(ctx context.Context, ticketID, orderID string) error

	// CancelledSet returns the set of ticket ids known to be cancelled,
	// used to cross-check upstream order listings.
	CancelledSet(ctx context.Context) (map[string]struct{}, error)

	// IsCancelled reports whether a single ticket id is in the ledger.
	IsCancelled(ctx context.Context, ticketID string) (bool, error)

	// Prune removes entries older than the retention window and returns
	// how many were removed.
	Prune(ctx context.Context) (int64, error)
}

type service struct {
	repo      Repository
	retention time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo Repository, retention time.Duration, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Record(ctx context.Context, ticketID, orderID string) error {
	entry := &Entry{
		TicketID:   ticketID,
		OrderID:    orderID,
		RecordedAt: s.now().UTC(),
	}
	return s.repo.Insert(ctx, entry)
}

func (s *service) CancelledSet(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.repo.ListTicketIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *service) IsCancelled(ctx context.Context, ticketID string) (bool, error) {
	return s.repo.Exists(ctx, ticketID)
}

func (s *service) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.LogLedgerPruned(ctx, removed)
	}
	return removed, nil
}

// StartPruner runs Prune once immediately and then on every interval tick
// until the context is cancelled. Pruning is lazy housekeeping; failures
// are logged and retried on the next tick.
func StartPruner(ctx context.Context, svc Service, interval time.Duration, log *logger.Logger) {
	go func() {
		if _, err := svc.Prune(ctx); err != nil {
			log.ErrorWithContext(ctx, "ledger prune failed", err, nil)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := svc.Prune(ctx); err != nil {
					log.ErrorWithContext(ctx, "ledger prune failed", err, nil)
				}
			}
		}
	}()
}
