package ledger

import (
	"context"
	"testing"
	"time"

	"ticketgate/pkg/logger"
)

// fakeRepo mimics the repository including the unique ticket_id index:
// a duplicate insert is silently ignored.
type fakeRepo struct {
	entries map[string]*Entry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[string]*Entry)}
}

func (f *fakeRepo) Insert(_ context.Context, entry *Entry) error {
	if _, ok := f.entries[entry.TicketID]; ok {
		return nil
	}
	f.entries[entry.TicketID] = entry
	return nil
}

func (f *fakeRepo) ListTicketIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.entries))
	for id := range f.entries {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRepo) Exists(_ context.Context, ticketID string) (bool, error) {
	_, ok := f.entries[ticketID]
	return ok, nil
}

func (f *fakeRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, e := range f.entries {
		if e.RecordedAt.Before(cutoff) {
			delete(f.entries, id)
			removed++
		}
	}
	return removed, nil
}

func newTestService(repo Repository, retention time.Duration, now time.Time) *service {
	return &service{
		repo:      repo,
		retention: retention,
		log:       logger.New(),
		now:       func() time.Time { return now },
	}
}

func TestRecordDeduplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 30*24*time.Hour, time.Now())

	if err := svc.Record(context.Background(), "t1", "o1"); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := svc.Record(context.Background(), "t1", "o1"); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected exactly 1 entry after duplicate record, got %d", len(repo.entries))
	}
}

func TestPruneRemovesExpiredEntries(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(repo, 30*24*time.Hour, now)

	repo.entries["old"] = &Entry{TicketID: "old", OrderID: "o1", RecordedAt: now.Add(-31 * 24 * time.Hour)}
	repo.entries["fresh"] = &Entry{TicketID: "fresh", OrderID: "o2", RecordedAt: now.Add(-29 * 24 * time.Hour)}

	removed, err := svc.Prune(context.Background())
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 entry pruned, got %d", removed)
	}
	if _, ok := repo.entries["old"]; ok {
		t.Error("entry older than 30 days survived the prune")
	}
	if _, ok := repo.entries["fresh"]; !ok {
		t.Error("entry within retention was pruned")
	}
}

func TestCancelledSet(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, 30*24*time.Hour, time.Now())

	for _, id := range []string{"t1", "t2"} {
		if err := svc.Record(context.Background(), id, "o1"); err != nil {
			t.Fatalf("record %s failed: %v", id, err)
		}
	}

	set, err := svc.CancelledSet(context.Background())
	if err != nil {
		t.Fatalf("cancelled set failed: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(set))
	}
	if _, ok := set["t1"]; !ok {
		t.Error("t1 missing from cancelled set")
	}

	cancelled, err := svc.IsCancelled(context.Background(), "t2")
	if err != nil {
		t.Fatalf("is-cancelled failed: %v", err)
	}
	if !cancelled {
		t.Error("t2 should be reported cancelled")
	}
}
