package tickets

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ticketgate/internal/upstream"
)

// ticketIDInfix joins an order id and a seat ordinal into a composite
// ticket id. The order id can always be recovered from the composite.
const ticketIDInfix = "-seat-"

// Ticket is a per-seat projection of an upstream order: one order with N
// live seats becomes N tickets, each carrying a denormalized copy of its
// seat and a reference back to the originating order.
type Ticket struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	EventID string `json:"event_id"`

	// Denormalized seat copy; reconstructed into the cancel payload.
	Section    string  `json:"section,omitempty"`
	Row        string  `json:"row,omitempty"`
	SeatNumber int     `json:"seat_number,omitempty"`
	Price      float64 `json:"price"`

	// Display metadata, best effort (placeholders on lookup failure).
	EventTitle    string `json:"event_title"`
	EventDate     string `json:"event_date"`
	EventTime     string `json:"event_time"`
	EventLocation string `json:"event_location"`

	// PurchasedAt is the raw upstream timestamp; unparseable values sort
	// to the end of the list.
	PurchasedAt string `json:"purchased_at"`
}

// TicketID derives the composite ticket id for one seat of an order.
func TicketID(orderID string, ordinal int) string {
	return fmt.Sprintf("%s%s%d", orderID, ticketIDInfix, ordinal)
}

// SeatTicketID derives a ledger key from the seat's own identity instead
// of its position in the order. A cancel request without a ticket id has
// no way to know the seat's ordinal, so both the cancel path and the list
// cross-check must key by what the seat IS, not where it sat.
func SeatTicketID(orderID, section, row string, seatNumber int) string {
	section = strings.ToLower(strings.TrimSpace(section))
	row = strings.ToLower(strings.TrimSpace(row))
	return fmt.Sprintf("%s%s%s-%s-%d", orderID, ticketIDInfix, section, row, seatNumber)
}

// OrderIDFromTicketID recovers the order id from a composite ticket id.
func OrderIDFromTicketID(ticketID string) (string, bool) {
	idx := strings.LastIndex(ticketID, ticketIDInfix)
	if idx <= 0 {
		return "", false
	}
	return ticketID[:idx], true
}

// ExpandOrder projects one upstream order into per-seat tickets. Pure:
// orders whose canonical status is gone yield nothing; cancelled seats are
// dropped; an order with no seat list is treated as general admission and
// expanded by quantity.
func ExpandOrder(order upstream.Order) []Ticket {
	if NormalizeOrderStatus(order).Gone() {
		return nil
	}

	orderID := order.ID
	if orderID == "" {
		orderID = order.OrderID
	}
	purchasedAt := order.PurchaseDate
	if purchasedAt == "" {
		purchasedAt = order.CreatedAt
	}

	if len(order.Seats) == 0 {
		return expandGeneralAdmission(order, orderID, purchasedAt)
	}

	tickets := make([]Ticket, 0, len(order.Seats))
	for i, seat := range order.Seats {
		if SeatGone(seat) {
			continue
		}
		tickets = append(tickets, Ticket{
			ID:          TicketID(orderID, i),
			OrderID:     orderID,
			EventID:     order.EventID,
			Section:     seat.Section,
			Row:         seat.Row,
			SeatNumber:  seat.SeatNumber,
			Price:       seat.Price,
			PurchasedAt: purchasedAt,
		})
	}
	return tickets
}

func expandGeneralAdmission(order upstream.Order, orderID, purchasedAt string) []Ticket {
	quantity := order.Quantity
	if quantity < 1 {
		quantity = 1
	}
	price := order.TotalAmount / float64(quantity)

	tickets := make([]Ticket, quantity)
	for i := range tickets {
		tickets[i] = Ticket{
			ID:          TicketID(orderID, i),
			OrderID:     orderID,
			EventID:     order.EventID,
			Price:       price,
			PurchasedAt: purchasedAt,
		}
	}
	return tickets
}

// purchaseLayouts are the timestamp formats the backend has been seen to
// emit.
var purchaseLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parsePurchasedAt(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range purchaseLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// SortTickets orders tickets newest purchase first; tickets with missing
// or unparseable dates sort to the end, keeping their relative order.
func SortTickets(tickets []Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		ti, iOK := parsePurchasedAt(tickets[i].PurchasedAt)
		tj, jOK := parsePurchasedAt(tickets[j].PurchasedAt)
		if iOK != jOK {
			return iOK
		}
		if !iOK {
			return false
		}
		return ti.After(tj)
	})
}
