package tickets

import (
	"strings"

	"ticketgate/internal/upstream"
)

// OrderStatus is the single canonical order state. The backend reports
// cancellation across several synonymous fields with inconsistent casing;
// everything collapses to this enum here, at the ingestion boundary, and
// nowhere else.
type OrderStatus string

const (
	StatusActive    OrderStatus = "ACTIVE"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRefunded  OrderStatus = "REFUNDED"
	StatusFailed    OrderStatus = "FAILED"
)

// Gone reports whether the status removes the order from active listings.
func (s OrderStatus) Gone() bool {
	return s != StatusActive
}

// NormalizeOrderStatus collapses an order's synonym status fields into the
// canonical enum. Checked, in order: status, paymentStatus, orderStatus,
// bookingStatus (substring match, any casing), then a cancellation
// timestamp, then a non-zero refund amount.
func NormalizeOrderStatus(order upstream.Order) OrderStatus {
	for _, raw := range []string{order.Status, order.PaymentStatus, order.OrderStatus, order.BookingStatus} {
		if status, ok := classifyStatusText(raw); ok {
			return status
		}
	}
	if strings.TrimSpace(order.CancelledAt) != "" {
		return StatusCancelled
	}
	if order.RefundAmount > 0 {
		return StatusRefunded
	}
	return StatusActive
}

// SeatGone reports whether a single seat inside an otherwise-active order
// has been cancelled or refunded.
func SeatGone(seat upstream.OrderSeat) bool {
	if seat.IsCancelled || seat.RefundAmount > 0 {
		return true
	}
	_, ok := classifyStatusText(seat.Status)
	return ok
}

func classifyStatusText(raw string) (OrderStatus, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}
	switch {
	case strings.Contains(text, "refund"):
		return StatusRefunded, true
	case strings.Contains(text, "cancel"):
		return StatusCancelled, true
	case strings.Contains(text, "fail"):
		return StatusFailed, true
	}
	return "", false
}
