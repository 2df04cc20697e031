package session

import (
	"sync"
	"time"

	"ticketgate/internal/countdown"
	"ticketgate/internal/seatmap"
)

// State is the booking-session lifecycle state.
type State string

const (
	StateIdle       State = "IDLE"
	StateSelecting  State = "SELECTING"
	StateSubmitting State = "SUBMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
	StateExpired    State = "EXPIRED"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExpired
}

// Mode selects the checkout path: a paid booking or a seller-side guest
// reservation.
type Mode string

const (
	ModeBook    Mode = "book"
	ModeReserve Mode = "reserve"
)

// ValidMode reports whether the string names a known checkout mode.
func ValidMode(m string) bool {
	return Mode(m) == ModeBook || Mode(m) == ModeReserve
}

// Session is one buyer's seat-hold window for one event. It owns the
// selection set and the countdown; both are discarded when the window
// closes. Sessions always start fresh, elapsed time is never resumed.
type Session struct {
	ID        string
	EventID   string
	UserID    string
	Mode      Mode
	StartedAt time.Time
	Duration  time.Duration

	mu        sync.Mutex
	state     State
	selection []seatmap.Seat
	selected  map[string]struct{}
	busy      bool
	lastError string
	orderID   string
	timer     *countdown.Timer
}

func newSession(id, eventID, userID string, mode Mode, duration time.Duration, now time.Time) *Session {
	return &Session{
		ID:        id,
		EventID:   eventID,
		UserID:    userID,
		Mode:      mode,
		StartedAt: now,
		Duration:  duration,
		state:     StateIdle,
		selected:  make(map[string]struct{}),
	}
}

func (s *Session) attachTimer(t *countdown.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = t
}

// begin moves the session into Selecting and starts its countdown.
func (s *Session) begin() {
	s.mu.Lock()
	timer := s.timer
	s.state = StateSelecting
	s.mu.Unlock()

	if timer != nil {
		timer.Start()
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Selection returns a copy of the current selection in toggle order.
func (s *Session) Selection() []seatmap.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]seatmap.Seat, len(s.selection))
	copy(out, s.selection)
	return out
}

// Selected reports whether the seat is currently in the selection set.
func (s *Session) Selected(seatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[seatID]
	return ok
}

// TotalPrice is the sum of the selected seats' prices. It is recomputed
// from the selection on every call and never fetched from the backend.
func (s *Session) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

func (s *Session) totalLocked() float64 {
	total := 0.0
	for _, seat := range s.selection {
		total += seat.Price
	}
	return total
}

// toggle adds the seat to the selection, or removes it if already present.
// Returns whether the seat ended up selected.
func (s *Session) toggle(seat seatmap.Seat) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return false, ErrSubmitInFlight
	}
	switch s.state {
	case StateSelecting:
	case StateFailed:
		// A failed submit leaves a fresh countdown; the first toggle
		// resumes selecting.
		s.state = StateSelecting
	default:
		return false, ErrNotAccepting
	}

	if _, ok := s.selected[seat.ID]; ok {
		delete(s.selected, seat.ID)
		for i, cur := range s.selection {
			if cur.ID == seat.ID {
				s.selection = append(s.selection[:i], s.selection[i+1:]...)
				break
			}
		}
		return false, nil
	}

	s.selected[seat.ID] = struct{}{}
	s.selection = append(s.selection, seat)
	return true, nil
}

// clear empties the selection set. Returns how many seats were dropped.
func (s *Session) clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return 0, ErrSubmitInFlight
	}
	if s.state != StateSelecting && s.state != StateFailed {
		return 0, ErrNotAccepting
	}
	dropped := len(s.selection)
	s.clearSelectionLocked()
	return dropped, nil
}

func (s *Session) clearSelectionLocked() {
	s.selection = nil
	s.selected = make(map[string]struct{})
}

// beginSubmit transitions to Submitting, stops the countdown so the buyer
// is under no time pressure during the network call, and hands back the
// selection to submit. Only one submit may be in flight.
func (s *Session) beginSubmit() ([]seatmap.Seat, error) {
	s.mu.Lock()

	if s.busy {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if s.state != StateSelecting && s.state != StateFailed {
		s.mu.Unlock()
		return nil, ErrNotAccepting
	}
	if len(s.selection) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptySelection
	}

	s.busy = true
	s.state = StateSubmitting
	seats := make([]seatmap.Seat, len(s.selection))
	copy(seats, s.selection)
	timer := s.timer
	s.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	return seats, nil
}

// completeSubmit records a successful checkout. The selection is cleared
// and the session is terminal.
func (s *Session) completeSubmit(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Expiry won the race while the request was in flight; the result
	// stands upstream but the session stays expired locally.
	if s.state == StateExpired {
		s.busy = false
		return
	}

	s.busy = false
	s.state = StateSucceeded
	s.orderID = orderID
	s.lastError = ""
	s.clearSelectionLocked()
}

// failSubmit records a rejected checkout and restarts the countdown so
// the buyer gets a fresh window to retry.
func (s *Session) failSubmit(reason string) {
	s.mu.Lock()
	if s.state == StateExpired {
		s.busy = false
		s.mu.Unlock()
		return
	}
	s.busy = false
	s.state = StateFailed
	s.lastError = reason
	timer := s.timer
	s.mu.Unlock()

	if timer != nil {
		timer.Start()
	}
}

// expire closes the window: the selection is discarded unconditionally,
// even if a submit happens to be in flight. Returns how many seats were
// discarded, or -1 if the session had already finished.
func (s *Session) expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return -1
	}
	discarded := len(s.selection)
	s.state = StateExpired
	s.clearSelectionLocked()
	return discarded
}

// OrderID returns the upstream order id once the session has succeeded.
func (s *Session) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

// LastError returns the most recent checkout failure reason, if any.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
