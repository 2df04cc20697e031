package upstream

// Wire types for the externally-owned ticketing REST backend. Field names
// mirror the backend's JSON exactly; nothing here is persisted locally.

// BookedSeat is one seat in the advisory booked-seats snapshot.
type BookedSeat struct {
	Section    string `json:"section"`
	Row        string `json:"row"`
	SeatNumber int    `json:"seatNumber"`
	ID         string `json:"_id"`
}

// BookedSeatsResponse is the payload of GET /bookings/booked-seats/{eventId}.
type BookedSeatsResponse struct {
	Success    bool         `json:"success"`
	Seats      []BookedSeat `json:"seats"`
	TotalSeats int          `json:"totalSeats"`
}

// SeatPayload identifies a seat in reserve, book and cancel requests.
type SeatPayload struct {
	Section    string  `json:"section"`
	Row        string  `json:"row"`
	SeatNumber int     `json:"seatNumber"`
	Price      float64 `json:"price"`
	ID         string  `json:"_id,omitempty"`
}

// ReserveRequest is the body of POST /bookings/reserve-seats (no-cost
// guest reservation).
type ReserveRequest struct {
	EventID  string        `json:"eventId"`
	SellerID string        `json:"sellerId"`
	Seats    []SeatPayload `json:"seats"`
}

// BookRequest is the body of POST /bookings/book (paid purchase).
type BookRequest struct {
	EventID string        `json:"eventId"`
	BuyerID string        `json:"buyerId"`
	Seats   []SeatPayload `json:"seats"`
}

// BookingResult is the success payload of reserve and book calls. The ID is
// used to route the buyer to checkout.
type BookingResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    bookingData `json:"data"`
}

type bookingData struct {
	ID string `json:"_id"`
}

// OrderID returns the identifier usable for checkout routing.
func (r *BookingResult) OrderID() string {
	return r.Data.ID
}

// OrderSeat is one seat inside an upstream order. Seat-level cancellation
// state can appear in any of several fields.
type OrderSeat struct {
	ID           string  `json:"_id"`
	Section      string  `json:"section"`
	Row          string  `json:"row"`
	SeatNumber   int     `json:"seatNumber"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	IsCancelled  bool    `json:"isCancelled"`
	RefundAmount float64 `json:"refundAmount"`
}

// Order is one record from GET /orders/my-orders. The backend reports
// cancellation state inconsistently across several synonymous fields and
// casings; normalization into one canonical status happens at ingestion
// (see the tickets package), never per call site.
type Order struct {
	ID            string      `json:"_id"`
	OrderID       string      `json:"orderId"`
	EventID       string      `json:"eventId"`
	BuyerID       string      `json:"buyerId"`
	SellerID      string      `json:"sellerId"`
	Status        string      `json:"status"`
	PaymentStatus string      `json:"paymentStatus"`
	OrderStatus   string      `json:"orderStatus"`
	BookingStatus string      `json:"bookingStatus"`
	CancelledAt   string      `json:"cancelledAt"`
	RefundAmount  float64     `json:"refundAmount"`
	TotalAmount   float64     `json:"totalAmount"`
	CreatedAt     string      `json:"createdAt"`
	PurchaseDate  string      `json:"purchaseDate"`
	Quantity      int         `json:"quantity"`
	Seats         []OrderSeat `json:"seats"`
}

// MyOrdersResponse is the payload of GET /orders/my-orders.
type MyOrdersResponse struct {
	Success bool    `json:"success"`
	Data    []Order `json:"data"`
}

// CancelRequest is the body of POST /payments/booking/cancel.
type CancelRequest struct {
	OrderID      string      `json:"orderId"`
	SeatToCancel SeatPayload `json:"seatToCancel"`
}

// EventInfo is the display metadata used to enrich tickets. Lookups are
// best effort; callers degrade to placeholders on failure.
type EventInfo struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
}

// EventResponse is the payload of GET /event/events/{eventId}.
type EventResponse struct {
	Success bool      `json:"success"`
	Data    EventInfo `json:"data"`
}

// errorEnvelope captures the message field of a non-2xx response body.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *errorEnvelope) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
