package tickets

import (
	"context"
	"errors"
	"fmt"

	"ticketgate/internal/bus"
	"ticketgate/internal/ledger"
	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/constants"
	"ticketgate/internal/shared/middleware"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/cache"
	"ticketgate/pkg/logger"
)

// OrderIDUnresolvedError means no order id could be recovered from any of
// the known locations. It carries whatever id fragments were present, for
// support purposes.
type OrderIDUnresolvedError struct {
	TicketID string
	Seat     SeatRef
}

func (e *OrderIDUnresolvedError) Error() string {
	return fmt.Sprintf(
		"cannot resolve an order id for cancellation (ticket id %q, seat %s %s%d)",
		e.TicketID, e.Seat.Section, e.Seat.Row, e.Seat.SeatNumber,
	)
}

// SeatIdentityIncompleteError means the request named an order but neither
// a ticket id nor a full seat, so there is no way to know which seat to
// cancel or to key the ledger afterwards.
type SeatIdentityIncompleteError struct {
	OrderID string
	Seat    SeatRef
}

func (e *SeatIdentityIncompleteError) Error() string {
	return fmt.Sprintf(
		"cancellation for order %s needs a ticket id or a complete seat (got section %q, row %q, seat %d)",
		e.OrderID, e.Seat.Section, e.Seat.Row, e.Seat.SeatNumber,
	)
}

// Service reconciles the buyer's ticket list against the upstream order
// store and the local cancelled-ticket ledger.
type Service interface {
	List(ctx context.Context, identity middleware.Identity) ([]Ticket, error)
	Cancel(ctx context.Context, identity middleware.Identity, req CancelTicketRequest) (*CancelResult, error)
}

type service struct {
	client    upstream.Client
	ledgerSvc ledger.Service
	eventBus  *bus.Bus
	cacheSvc  cache.Service
	cfg       *config.Config
	log       *logger.Logger
}

func NewService(client upstream.Client, ledgerSvc ledger.Service, eventBus *bus.Bus, cacheSvc cache.Service, cfg *config.Config, log *logger.Logger) Service {
	return &service{
		client:    client,
		ledgerSvc: ledgerSvc,
		eventBus:  eventBus,
		cacheSvc:  cacheSvc,
		cfg:       cfg,
		log:       log,
	}
}

// List fetches the buyer's orders, expands them into per-seat tickets,
// drops anything cancelled (upstream fields or local ledger), enriches
// with event metadata and sorts newest first.
func (s *service) List(ctx context.Context, identity middleware.Identity) ([]Ticket, error) {
	orders, err := s.client.MyOrders(ctx, identity.Token)
	if err != nil {
		return nil, err
	}

	cancelled, err := s.ledgerSvc.CancelledSet(ctx)
	if err != nil {
		// The ledger is a cross-check, not the source of truth; list
		// without it rather than failing the whole page.
		s.log.ErrorWithContext(ctx, "ledger read failed, listing without cross-check", err, nil)
		cancelled = map[string]struct{}{}
	}

	tickets := make([]Ticket, 0, len(orders))
	for _, order := range orders {
		for _, ticket := range ExpandOrder(order) {
			if _, gone := cancelled[ticket.ID]; gone {
				continue
			}
			// Cancellations made without a ticket id are ledgered under
			// the seat's own identity; check that key too.
			if ticket.Section != "" {
				seatKey := SeatTicketID(ticket.OrderID, ticket.Section, ticket.Row, ticket.SeatNumber)
				if _, gone := cancelled[seatKey]; gone {
					continue
				}
			}
			tickets = append(tickets, ticket)
		}
	}

	s.enrich(ctx, identity.Token, tickets)
	SortTickets(tickets)
	return tickets, nil
}

// Cancel issues the upstream cancellation and records the terminal state.
// A 400-class "already cancelled / not found" response is a success: the
// seat is gone either way.
func (s *service) Cancel(ctx context.Context, identity middleware.Identity, req CancelTicketRequest) (*CancelResult, error) {
	orderID, ok := resolveOrderID(req)
	if !ok {
		return nil, &OrderIDUnresolvedError{TicketID: req.TicketID, Seat: req.Seat}
	}
	if req.TicketID == "" && !req.Seat.Complete() {
		return nil, &SeatIdentityIncompleteError{OrderID: orderID, Seat: req.Seat}
	}

	err := s.client.CancelSeat(ctx, identity.Token, upstream.CancelRequest{
		OrderID: orderID,
		SeatToCancel: upstream.SeatPayload{
			Section:    req.Seat.Section,
			Row:        req.Seat.Row,
			SeatNumber: req.Seat.SeatNumber,
			Price:      req.Seat.Price,
		},
	})

	alreadyGone := false
	if err != nil {
		if !upstream.IsAlreadyCancelled(err) {
			var apiErr *upstream.APIError
			if errors.As(err, &apiErr) {
				return nil, fmt.Errorf("cancellation failed for order %s: %w", orderID, apiErr)
			}
			return nil, err
		}
		alreadyGone = true
	}

	// Without a ticket id the seat's ordinal in the order is unknowable,
	// so the ledger key falls back to the seat identity; List checks both
	// forms.
	ticketID := req.TicketID
	if ticketID == "" {
		ticketID = SeatTicketID(orderID, req.Seat.Section, req.Seat.Row, req.Seat.SeatNumber)
	}

	// A failed ledger write must not undo a cancellation that already
	// happened upstream.
	if err := s.ledgerSvc.Record(ctx, ticketID, orderID); err != nil {
		s.log.ErrorWithContext(ctx, "ledger write failed after cancellation", err, map[string]interface{}{
			"ticket_id": ticketID,
			"order_id":  orderID,
		})
	}

	s.eventBus.Publish(bus.TicketCancelled(ticketID, orderID))
	s.log.LogTicketCancelled(ctx, ticketID, orderID, alreadyGone)

	go s.resync(identity)

	return &CancelResult{
		TicketID:         ticketID,
		OrderID:          orderID,
		AlreadyCancelled: alreadyGone,
	}, nil
}

// resolveOrderID recovers the order id from the explicit field, then the
// raw field, then the composite ticket id.
func resolveOrderID(req CancelTicketRequest) (string, bool) {
	if req.OrderID != "" {
		return req.OrderID, true
	}
	if req.RawOrderID != "" {
		return req.RawOrderID, true
	}
	if parsed, ok := OrderIDFromTicketID(req.TicketID); ok {
		return parsed, true
	}
	return "", false
}

// resync re-fetches the authoritative list in the background and nudges
// open ticket views to refresh.
func (s *service) resync(identity middleware.Identity) {
	ctx := context.Background()
	if _, err := s.List(ctx, identity); err != nil {
		s.log.ErrorWithContext(ctx, "background ticket resync failed", err, nil)
		return
	}
	s.eventBus.Publish(bus.TicketsRefreshRequested())
}

// enrich fills display metadata per event, best effort. A failed lookup
// degrades to placeholders rather than failing the list.
func (s *service) enrich(ctx context.Context, token string, tickets []Ticket) {
	infos := make(map[string]*upstream.EventInfo)
	for i := range tickets {
		eventID := tickets[i].EventID
		info, seen := infos[eventID]
		if !seen {
			info = s.eventInfo(ctx, token, eventID)
			infos[eventID] = info
		}
		applyEventInfo(&tickets[i], info)
	}
}

func (s *service) eventInfo(ctx context.Context, token, eventID string) *upstream.EventInfo {
	if eventID == "" {
		return nil
	}
	var info upstream.EventInfo
	err := s.cacheSvc.GetOrSet(ctx, constants.BuildEventInfoKey(eventID), s.cfg.Redis.EventInfoTTL, func() (interface{}, error) {
		return s.client.Event(ctx, token, eventID)
	}, &info)
	if err != nil {
		s.log.InfoWithContext(ctx, "event lookup failed, using placeholder", map[string]interface{}{
			"event_id": eventID,
		})
		return nil
	}
	return &info
}

func applyEventInfo(ticket *Ticket, info *upstream.EventInfo) {
	if info == nil {
		ticket.EventTitle = placeholderTitle(ticket.EventID)
		ticket.EventDate = "TBA"
		ticket.EventTime = "TBA"
		ticket.EventLocation = "TBA"
		return
	}
	ticket.EventTitle = orTBA(info.Title)
	ticket.EventDate = orTBA(info.Date)
	ticket.EventTime = orTBA(info.Time)
	ticket.EventLocation = orTBA(info.Location)
}

func placeholderTitle(eventID string) string {
	if eventID == "" {
		return "Event TBA"
	}
	if len(eventID) > 8 {
		eventID = eventID[:8]
	}
	return "Event " + eventID
}

func orTBA(value string) string {
	if value == "" {
		return "TBA"
	}
	return value
}
