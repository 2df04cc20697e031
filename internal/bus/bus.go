package bus

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ticketgate/pkg/logger"
)

// EventType discriminates bus events.
type EventType string

const (
	// EventTicketCancelled announces a cancellation that reached a
	// terminal state (confirmed or already gone upstream).
	EventTicketCancelled EventType = "TICKET_CANCELLED"
	// EventTicketsRefreshRequested asks open ticket lists to re-fetch.
	EventTicketsRefreshRequested EventType = "TICKETS_REFRESH_REQUESTED"
)

// Event is one bus notification.
type Event struct {
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketCancelled builds a cancellation event.
func TicketCancelled(ticketID, orderID string) Event {
	return Event{
		Type:      EventTicketCancelled,
		TicketID:  ticketID,
		OrderID:   orderID,
		Timestamp: time.Now().UTC(),
	}
}

// TicketsRefreshRequested builds a refresh-request event.
func TicketsRefreshRequested() Event {
	return Event{
		Type:      EventTicketsRefreshRequested,
		Timestamp: time.Now().UTC(),
	}
}

// Listener receives published events. Listeners run synchronously on the
// publisher's goroutine; a panicking listener is recovered and logged and
// never prevents delivery to the remaining listeners.
type Listener func(Event)

// Bus is an in-process fan-out for cross-component notification. It is
// constructed once at application start and passed to whoever needs it;
// it holds no durable state (the cancelled-ticket ledger is written by
// publishers, not by the bus).
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	log       *logger.Logger
}

// New creates an empty bus.
func New(log *logger.Logger) *Bus {
	return &Bus{
		listeners: make(map[int]Listener),
		log:       log,
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus) Subscribe(listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every listener current at publish time,
// in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, len(ids))
	for i, id := range ids {
		listeners[i] = b.listeners[id]
	}
	b.mu.RUnlock()

	for _, listener := range listeners {
		b.deliver(listener, event)
	}
}

func (b *Bus) deliver(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.ErrorWithContext(context.Background(), "bus listener panicked",
				fmt.Errorf("%v", r),
				map[string]interface{}{"event_type": event.Type},
			)
		}
	}()
	listener(event)
}
