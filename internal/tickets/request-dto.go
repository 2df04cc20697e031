package tickets

// SeatRef is the denormalized seat copy reconstructed into the upstream
// cancel payload.
type SeatRef struct {
	Section    string  `json:"section" validate:"omitempty,min=1"`
	Row        string  `json:"row" validate:"omitempty,min=1"`
	SeatNumber int     `json:"seat_number" validate:"gte=0"`
	Price      float64 `json:"price" validate:"gte=0"`
}

// Complete reports whether the seat carries enough identity to name one
// seat on its own. General-admission tickets have no seat identity and
// present a ticket id instead.
func (s SeatRef) Complete() bool {
	return s.Section != "" && s.Row != "" && s.SeatNumber > 0
}

// CancelTicketRequest asks for one ticket's seat to be cancelled. The
// order id may arrive in any of three places; resolution order is the
// explicit field, then the raw field, then parsing the composite ticket
// id. A request must carry a ticket id or a complete seat identity.
type CancelTicketRequest struct {
	TicketID   string  `json:"ticket_id" validate:"omitempty,min=1"`
	OrderID    string  `json:"order_id"`
	RawOrderID string  `json:"raw_order_id"`
	Seat       SeatRef `json:"seat"`
}
