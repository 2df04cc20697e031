package session

import (
	"time"

	"ticketgate/internal/countdown"
	"ticketgate/internal/seatmap"
)

// SelectedSeat is one selection entry as rendered to the client.
type SelectedSeat struct {
	ID      string  `json:"id"`
	Section string  `json:"section"`
	Row     string  `json:"row"`
	Number  int     `json:"number"`
	Price   float64 `json:"price"`
	Name    string  `json:"name"`
}

// SessionResponse is the full client view of a booking session.
type SessionResponse struct {
	ID         string         `json:"id"`
	EventID    string         `json:"event_id"`
	Mode       Mode           `json:"mode"`
	State      State          `json:"state"`
	StartedAt  time.Time      `json:"started_at"`
	Selection  []SelectedSeat `json:"selection"`
	TotalPrice float64        `json:"total_price"`

	// Countdown view
	Remaining        string `json:"remaining"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Warning          bool   `json:"warning"`
	Active           bool   `json:"active"`

	OrderID   string `json:"order_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// CheckoutResponse is returned on a successful submit.
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	State     State  `json:"state"`
	OrderID   string `json:"order_id"`
	// RedirectAfter is how many seconds the client should keep the
	// success message visible before navigating away.
	RedirectAfter float64 `json:"redirect_after_seconds"`
}

func buildSessionResponse(sess *Session) *SessionResponse {
	sess.mu.Lock()
	selection := make([]SelectedSeat, len(sess.selection))
	for i, seat := range sess.selection {
		selection[i] = selectedSeatView(seat)
	}
	resp := &SessionResponse{
		ID:         sess.ID,
		EventID:    sess.EventID,
		Mode:       sess.Mode,
		State:      sess.state,
		StartedAt:  sess.StartedAt,
		Selection:  selection,
		TotalPrice: sess.totalLocked(),
		OrderID:    sess.orderID,
		LastError:  sess.lastError,
	}
	timer := sess.timer
	sess.mu.Unlock()

	if timer != nil {
		remaining := timer.Remaining()
		resp.Remaining = countdown.FormatRemaining(remaining)
		resp.RemainingSeconds = int(remaining.Round(time.Second).Seconds())
		resp.Warning = timer.Warning()
		resp.Active = timer.Active()
	}
	return resp
}

func selectedSeatView(seat seatmap.Seat) SelectedSeat {
	return SelectedSeat{
		ID:      seat.ID,
		Section: seat.Section,
		Row:     seat.Row,
		Number:  seat.Number,
		Price:   seat.Price,
		Name:    seat.Name,
	}
}
