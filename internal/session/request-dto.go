package session

// StartSessionRequest opens a fresh seat-hold window for an event.
type StartSessionRequest struct {
	EventID string `json:"event_id" binding:"required"`
	Mode    string `json:"mode" binding:"omitempty,oneof=book reserve"`
}

// ToggleSeatRequest adds or removes one seat from the selection.
type ToggleSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}
