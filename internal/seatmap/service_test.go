package seatmap

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ticketgate/internal/shared/config"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/cache"
)

// memoryCache is a synchronous map-backed cache.Service for tests.
type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) bool {
	_, ok := m.entries[key]
	return ok
}

func (m *memoryCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	if err := m.Get(ctx, key, dest); err == nil {
		return nil
	}
	data, err := fetcher()
	if err != nil {
		return err
	}
	if err := m.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	return m.Get(ctx, key, dest)
}

func (m *memoryCache) Ping(_ context.Context) error { return nil }

// stubClient serves a fixed booked-seats snapshot and counts fetches.
type stubClient struct {
	upstream.Client
	seats   []upstream.BookedSeat
	err     error
	fetches int
}

func (s *stubClient) BookedSeats(_ context.Context, _, _ string) (*upstream.BookedSeatsResponse, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return &upstream.BookedSeatsResponse{Success: true, Seats: s.seats, TotalSeats: len(s.seats)}, nil
}

func newTestService(client upstream.Client) Service {
	cfg := &config.Config{}
	cfg.Redis.BookedSeatsTTL = time.Minute
	return NewService(DefaultSections(), client, newMemoryCache(), cfg)
}

func TestViewOverlaysBookedSeats(t *testing.T) {
	stub := &stubClient{seats: []upstream.BookedSeat{
		{Section: "ground", Row: "A", SeatNumber: 1},
		{Section: "balcony", Row: "C", SeatNumber: 14},
	}}
	svc := newTestService(stub)

	view, err := svc.View(context.Background(), "token", "event-1")
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
	if view.TotalBooked != 2 {
		t.Errorf("expected 2 booked seats, got %d", view.TotalBooked)
	}

	booked := 0
	for _, section := range view.Sections {
		for _, seat := range section.Seats {
			if seat.Booked {
				booked++
				key := BookedKey(seat.Section, seat.Row, seat.Number)
				if key != "ground|A|1" && key != "balcony|C|14" {
					t.Errorf("unexpected seat marked booked: %s", key)
				}
			}
		}
	}
	if booked != 2 {
		t.Errorf("expected exactly 2 seats flagged in the overlay, got %d", booked)
	}
}

func TestViewOmitsSeatsForContactSections(t *testing.T) {
	svc := newTestService(&stubClient{})

	view, err := svc.View(context.Background(), "token", "event-1")
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}

	for _, section := range view.Sections {
		if section.RequiresContact && len(section.Seats) != 0 {
			t.Errorf("contact section %s should carry no seats, got %d", section.ID, len(section.Seats))
		}
		if !section.RequiresContact && len(section.Seats) == 0 {
			t.Errorf("selectable section %s should carry seats", section.ID)
		}
	}
}

func TestBookedSetCachesSnapshot(t *testing.T) {
	stub := &stubClient{seats: []upstream.BookedSeat{{Section: "ground", Row: "B", SeatNumber: 3}}}
	svc := newTestService(stub)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		set, err := svc.BookedSet(ctx, "token", "event-1")
		if err != nil {
			t.Fatalf("BookedSet returned error: %v", err)
		}
		if _, ok := set["ground|B|3"]; !ok {
			t.Fatalf("booked seat missing from set on call %d", i+1)
		}
	}
	if stub.fetches != 1 {
		t.Errorf("expected a single upstream fetch, got %d", stub.fetches)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	stub := &stubClient{}
	svc := newTestService(stub)
	ctx := context.Background()

	if _, err := svc.BookedSet(ctx, "token", "event-1"); err != nil {
		t.Fatalf("BookedSet returned error: %v", err)
	}
	if err := svc.Invalidate(ctx, "event-1"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if _, err := svc.BookedSet(ctx, "token", "event-1"); err != nil {
		t.Fatalf("BookedSet returned error: %v", err)
	}
	if stub.fetches != 2 {
		t.Errorf("expected refetch after invalidation, got %d fetches", stub.fetches)
	}
}

func TestBookedSetPropagatesUpstreamError(t *testing.T) {
	stub := &stubClient{err: &upstream.APIError{Kind: upstream.KindNetworkOrServer, Message: "backend down"}}
	svc := newTestService(stub)

	if _, err := svc.BookedSet(context.Background(), "token", "event-1"); err == nil {
		t.Fatal("expected error from failing upstream")
	}
}

func TestContactHandoff(t *testing.T) {
	svc := newTestService(&stubClient{})

	handoff, err := svc.ContactHandoff("event-1", "vip")
	if err != nil {
		t.Fatalf("ContactHandoff returned error: %v", err)
	}
	if handoff.Price != 500 || handoff.Capacity != 12 {
		t.Errorf("unexpected handoff metadata: %+v", handoff)
	}

	if _, err := svc.ContactHandoff("event-1", "ground"); err == nil {
		t.Error("expected error for a directly selectable section")
	}
	if _, err := svc.ContactHandoff("event-1", "nope"); err == nil {
		t.Error("expected error for an unknown section")
	}
}

func TestSeatByID(t *testing.T) {
	svc := newTestService(&stubClient{})

	seat, ok := svc.SeatByID(SeatID("ground", 0, 0, 0))
	if !ok {
		t.Fatal("expected first ground seat to resolve")
	}
	if seat.Row != "A" || seat.Number != 1 || seat.Price != 80 {
		t.Errorf("unexpected seat: %+v", seat)
	}

	if _, ok := svc.SeatByID("ground-r99-c0-s0"); ok {
		t.Error("out-of-range seat id should not resolve")
	}
}
