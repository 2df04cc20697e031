package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ticketgate/internal/bus"
	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/middleware"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/cache"
	"ticketgate/pkg/logger"
)

// fakeBackend stubs the upstream order and event endpoints.
type fakeBackend struct {
	upstream.Client
	mu         sync.Mutex
	orders     []upstream.Order
	ordersErr  error
	orderCalls int

	cancelErr error
	cancelled []upstream.CancelRequest

	eventInfo  *upstream.EventInfo
	eventErr   error
	eventCalls int
}

func (f *fakeBackend) MyOrders(_ context.Context, token string) ([]upstream.Order, error) {
	if token == "" {
		return nil, upstream.ErrAuthenticationMissing
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderCalls++
	if f.ordersErr != nil {
		return nil, f.ordersErr
	}
	return f.orders, nil
}

func (f *fakeBackend) CancelSeat(_ context.Context, token string, req upstream.CancelRequest) error {
	if token == "" {
		return upstream.ErrAuthenticationMissing
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, req)
	return f.cancelErr
}

func (f *fakeBackend) Event(_ context.Context, token, _ string) (*upstream.EventInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eventCalls++
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	return f.eventInfo, nil
}

func (f *fakeBackend) lastCancel(t *testing.T) upstream.CancelRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cancelled) == 0 {
		t.Fatal("no cancel request reached the backend")
	}
	return f.cancelled[len(f.cancelled)-1]
}

// fakeLedger is a map-backed ledger.Service.
type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]string)}
}

func (f *fakeLedger) Record(_ context.Context, ticketID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[ticketID] = orderID
	return nil
}

func (f *fakeLedger) CancelledSet(_ context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[string]struct{}, len(f.entries))
	for id := range f.entries {
		set[id] = struct{}{}
	}
	return set, nil
}

func (f *fakeLedger) IsCancelled(_ context.Context, ticketID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[ticketID]
	return ok, nil
}

func (f *fakeLedger) Prune(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeLedger) has(ticketID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[ticketID]
	return ok
}

// memCache is a synchronous map-backed cache.Service.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	raw, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *memCache) Exists(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

func (m *memCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
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

func (m *memCache) Ping(_ context.Context) error { return nil }

func buyerIdentity() middleware.Identity {
	return middleware.Identity{UserID: "buyer-1", Token: "token-1"}
}

func newTicketSetup(backend *fakeBackend) (Service, *fakeLedger, *bus.Bus) {
	cfg := &config.Config{}
	cfg.Redis.EventInfoTTL = time.Minute
	log := logger.New()
	ledgerSvc := newFakeLedger()
	eventBus := bus.New(log)
	svc := NewService(backend, ledgerSvc, eventBus, newMemCache(), cfg, log)
	return svc, ledgerSvc, eventBus
}

func liveOrder(id, eventID string, seatNumbers ...int) upstream.Order {
	seats := make([]upstream.OrderSeat, len(seatNumbers))
	for i, n := range seatNumbers {
		seats[i] = upstream.OrderSeat{Section: "ground", Row: "A", SeatNumber: n, Price: 80}
	}
	return upstream.Order{
		ID:        id,
		EventID:   eventID,
		Status:    "confirmed",
		CreatedAt: "2026-02-01T12:00:00Z",
		Seats:     seats,
	}
}

func TestListCrossChecksLedger(t *testing.T) {
	backend := &fakeBackend{
		orders:    []upstream.Order{liveOrder("order-1", "event-1", 1, 2)},
		eventInfo: &upstream.EventInfo{Title: "Spring Gala", Date: "2026-04-01", Time: "19:00", Location: "Main Hall"},
	}
	svc, ledgerSvc, _ := newTicketSetup(backend)

	// The backend still reports seat 0 as live, but the ledger knows better.
	if err := ledgerSvc.Record(context.Background(), TicketID("order-1", 0), "order-1"); err != nil {
		t.Fatal(err)
	}

	tickets, err := svc.List(context.Background(), buyerIdentity())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket after ledger cross-check, got %d", len(tickets))
	}
	if tickets[0].SeatNumber != 2 {
		t.Errorf("wrong seat survived: %d", tickets[0].SeatNumber)
	}
	if tickets[0].EventTitle != "Spring Gala" {
		t.Errorf("event metadata not applied: %q", tickets[0].EventTitle)
	}
}

func TestListUsesPlaceholdersWhenEventLookupFails(t *testing.T) {
	backend := &fakeBackend{
		orders:   []upstream.Order{liveOrder("order-1", "68a1f2c3d4e5f6", 1)},
		eventErr: &upstream.APIError{Kind: upstream.KindNetworkOrServer, StatusCode: 500, Message: "boom"},
	}
	svc, _, _ := newTicketSetup(backend)

	tickets, err := svc.List(context.Background(), buyerIdentity())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(tickets))
	}
	if tickets[0].EventTitle != "Event 68a1f2c3" {
		t.Errorf("placeholder title = %q", tickets[0].EventTitle)
	}
	if tickets[0].EventDate != "TBA" || tickets[0].EventLocation != "TBA" {
		t.Errorf("placeholder fields = %q / %q, want TBA", tickets[0].EventDate, tickets[0].EventLocation)
	}
}

func TestListLooksUpEachEventOnce(t *testing.T) {
	backend := &fakeBackend{
		orders: []upstream.Order{
			liveOrder("order-1", "event-1", 1, 2, 3),
			liveOrder("order-2", "event-1", 7),
		},
		eventInfo: &upstream.EventInfo{Title: "Spring Gala"},
	}
	svc, _, _ := newTicketSetup(backend)

	if _, err := svc.List(context.Background(), buyerIdentity()); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if backend.eventCalls != 1 {
		t.Errorf("expected a single event lookup, got %d", backend.eventCalls)
	}
}

func TestCancelAlreadyGoneIsSuccess(t *testing.T) {
	backend := &fakeBackend{
		cancelErr: &upstream.APIError{Kind: upstream.KindAlreadyCancelled, StatusCode: 400, Message: "Booking already cancelled"},
	}
	svc, ledgerSvc, eventBus := newTicketSetup(backend)

	received := make(chan bus.Event, 8)
	defer eventBus.Subscribe(func(e bus.Event) { received <- e })()

	ticketID := TicketID("order-9", 0)
	result, err := svc.Cancel(context.Background(), buyerIdentity(), CancelTicketRequest{
		TicketID: ticketID,
		Seat:     SeatRef{Section: "ground", Row: "A", SeatNumber: 1, Price: 80},
	})
	if err != nil {
		t.Fatalf("already-gone cancellation must succeed, got %v", err)
	}
	if !result.AlreadyCancelled {
		t.Error("result should flag the ticket as already cancelled")
	}
	if !ledgerSvc.has(ticketID) {
		t.Error("already-gone cancellation must still be ledgered")
	}

	select {
	case event := <-received:
		if event.Type != bus.EventTicketCancelled {
			t.Errorf("first bus event = %s, want %s", event.Type, bus.EventTicketCancelled)
		}
		if event.TicketID != ticketID || event.OrderID != "order-9" {
			t.Errorf("bus event ids = %s / %s", event.TicketID, event.OrderID)
		}
	case <-time.After(time.Second):
		t.Fatal("no cancellation event reached the bus")
	}
}

func TestCancelPublishesRefreshAfterResync(t *testing.T) {
	backend := &fakeBackend{orders: []upstream.Order{}}
	svc, _, eventBus := newTicketSetup(backend)

	received := make(chan bus.Event, 8)
	defer eventBus.Subscribe(func(e bus.Event) { received <- e })()

	if _, err := svc.Cancel(context.Background(), buyerIdentity(), CancelTicketRequest{
		TicketID: TicketID("order-1", 0),
		Seat:     SeatRef{Section: "ground", Row: "A", SeatNumber: 1, Price: 80},
	}); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-received:
			if event.Type == bus.EventTicketsRefreshRequested {
				return
			}
		case <-deadline:
			t.Fatal("background resync never requested a refresh")
		}
	}
}

func TestCancelResolvesOrderIDInPriorityOrder(t *testing.T) {
	cases := []struct {
		name string
		req  CancelTicketRequest
		want string
	}{
		{
			"explicit field wins",
			CancelTicketRequest{OrderID: "explicit", RawOrderID: "raw", TicketID: TicketID("composite", 0)},
			"explicit",
		},
		{
			"raw field next",
			CancelTicketRequest{RawOrderID: "raw", TicketID: TicketID("composite", 0)},
			"raw",
		},
		{
			"composite id last",
			CancelTicketRequest{TicketID: TicketID("composite", 3)},
			"composite",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &fakeBackend{}
			svc, _, _ := newTicketSetup(backend)

			if _, err := svc.Cancel(context.Background(), buyerIdentity(), tc.req); err != nil {
				t.Fatalf("Cancel returned error: %v", err)
			}
			if got := backend.lastCancel(t).OrderID; got != tc.want {
				t.Errorf("resolved order id = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCancelFailsFastWithoutAnyOrderID(t *testing.T) {
	backend := &fakeBackend{}
	svc, ledgerSvc, _ := newTicketSetup(backend)

	_, err := svc.Cancel(context.Background(), buyerIdentity(), CancelTicketRequest{
		TicketID: "opaque-id-without-marker",
		Seat:     SeatRef{Section: "balcony", Row: "C", SeatNumber: 12},
	})
	if err == nil {
		t.Fatal("expected an error when no order id can be resolved")
	}
	if !strings.Contains(err.Error(), "opaque-id-without-marker") || !strings.Contains(err.Error(), "balcony") {
		t.Errorf("error should carry the known id fragments, got %q", err.Error())
	}
	if len(backend.cancelled) != 0 {
		t.Error("no upstream call should be made without an order id")
	}
	if ledgerSvc.has("opaque-id-without-marker") {
		t.Error("nothing should be ledgered on a failed resolution")
	}
}

func TestCancelByOrderIDHidesTicketFromList(t *testing.T) {
	// The backend keeps reporting the seat as live after its cancellation
	// went through; the ledger must hide it anyway, even though the cancel
	// request carried no ticket id to key the ledger by.
	backend := &fakeBackend{
		orders:    []upstream.Order{liveOrder("order-1", "event-1", 5)},
		eventInfo: &upstream.EventInfo{Title: "Spring Gala"},
	}
	svc, ledgerSvc, _ := newTicketSetup(backend)

	result, err := svc.Cancel(context.Background(), buyerIdentity(), CancelTicketRequest{
		OrderID: "order-1",
		Seat:    SeatRef{Section: "ground", Row: "A", SeatNumber: 5, Price: 80},
	})
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if !ledgerSvc.has(result.TicketID) {
		t.Fatalf("cancellation not ledgered under %q", result.TicketID)
	}

	tickets, err := svc.List(context.Background(), buyerIdentity())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tickets) != 0 {
		t.Fatalf("cancelled seat reappeared in the list: %+v", tickets)
	}
}

func TestCancelWithoutTicketIDNeedsFullSeat(t *testing.T) {
	backend := &fakeBackend{}
	svc, ledgerSvc, _ := newTicketSetup(backend)

	_, err := svc.Cancel(context.Background(), buyerIdentity(), CancelTicketRequest{
		OrderID: "order-1",
		Seat:    SeatRef{Section: "ground"},
	})
	var incomplete *SeatIdentityIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected a seat-identity error, got %v", err)
	}
	if !strings.Contains(err.Error(), "order-1") || !strings.Contains(err.Error(), "ground") {
		t.Errorf("error should carry the known fragments, got %q", err.Error())
	}
	if len(backend.cancelled) != 0 {
		t.Error("no upstream call should be made without a seat identity")
	}
	if len(ledgerSvc.entries) != 0 {
		t.Error("nothing should be ledgered on a rejected request")
	}
}

func TestCancelSurfacesDetailedServerError(t *testing.T) {
	backend := &fakeBackend{
		cancelErr: &upstream.APIError{Kind: upstream.KindNetworkOrServer, StatusCode: 502, Message: "payment processor offline"},
	}
	svc, ledgerSvc, eventBus := newTicketSetup(backend)

	received := make(chan bus.Event, 8)
	defer eventBus.Subscribe(func(e bus.Event) { received <- e })()

	ticketID := TicketID("order-5", 1)
	_, err := svc.Cancel(context.Background(), buyerIdentity(), CancelTicketRequest{
		TicketID: ticketID,
		Seat:     SeatRef{Section: "ground", Row: "A", SeatNumber: 2, Price: 80},
	})
	if err == nil {
		t.Fatal("expected the server error to propagate")
	}
	for _, fragment := range []string{"order-5", "502", "payment processor offline"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q should mention %q", err.Error(), fragment)
		}
	}
	if ledgerSvc.has(ticketID) {
		t.Error("a real failure must not be ledgered")
	}
	select {
	case event := <-received:
		t.Errorf("no bus event expected on failure, got %s", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}
