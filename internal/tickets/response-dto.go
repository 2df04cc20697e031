package tickets

// ListResponse is the payload of GET /tickets.
type ListResponse struct {
	Tickets []Ticket `json:"tickets"`
	Total   int      `json:"total"`
}

// CancelResult reports the terminal state of a cancellation. An upstream
// "already cancelled" is a success here, flagged for the caller.
type CancelResult struct {
	TicketID         string `json:"ticket_id"`
	OrderID          string `json:"order_id"`
	AlreadyCancelled bool   `json:"already_cancelled"`
}
