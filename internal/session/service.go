package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ticketgate/internal/countdown"
	"ticketgate/internal/seatmap"
	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/middleware"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/logger"
)

var (
	ErrNotFound          = errors.New("session not found")
	ErrNotAccepting      = errors.New("session is not accepting changes")
	ErrSubmitInFlight    = errors.New("a checkout is already in flight")
	ErrEmptySelection    = errors.New("no seats selected")
	ErrUnknownSeat       = errors.New("unknown seat")
	ErrSeatBooked        = errors.New("seat is already booked")
	ErrSeatNotSelectable = errors.New("section requires contacting the organizer")
)

// Service drives the booking-session state machine.
type Service interface {
	Start(ctx context.Context, identity middleware.Identity, req StartSessionRequest) (*SessionResponse, error)
	Get(ctx context.Context, identity middleware.Identity, sessionID string) (*SessionResponse, error)
	ToggleSeat(ctx context.Context, identity middleware.Identity, sessionID string, req ToggleSeatRequest) (*SessionResponse, error)
	ClearSeats(ctx context.Context, identity middleware.Identity, sessionID string) (*SessionResponse, error)
	Checkout(ctx context.Context, identity middleware.Identity, sessionID string) (*CheckoutResponse, error)
}

type service struct {
	store      *Store
	seatmapSvc seatmap.Service
	client     upstream.Client
	cfg        *config.Config
	log        *logger.Logger
}

func NewService(store *Store, seatmapSvc seatmap.Service, client upstream.Client, cfg *config.Config, log *logger.Logger) Service {
	return &service{
		store:      store,
		seatmapSvc: seatmapSvc,
		client:     client,
		cfg:        cfg,
		log:        log,
	}
}

// Start opens a fresh seat-hold window. A previous window for the same
// buyer is never resumed; every start counts down from the full duration.
func (s *service) Start(ctx context.Context, identity middleware.Identity, req StartSessionRequest) (*SessionResponse, error) {
	mode := Mode(req.Mode)
	if mode == "" {
		mode = ModeBook
	}
	if !ValidMode(string(mode)) {
		return nil, fmt.Errorf("invalid mode %q", req.Mode)
	}

	sess := newSession(uuid.New().String(), req.EventID, identity.UserID, mode, s.cfg.Session.Duration, s.store.now())

	timer := countdown.New(s.cfg.Session.Duration, func() {
		discarded := sess.expire()
		if discarded >= 0 {
			s.log.LogSessionExpired(context.Background(), sess.ID, discarded)
		}
	}, countdown.WithWarningThreshold(s.cfg.Session.WarningThreshold))

	sess.attachTimer(timer)
	sess.begin()
	s.store.Put(sess)

	s.log.LogSessionStarted(ctx, sess.ID, sess.EventID, identity.UserID)
	return s.view(sess), nil
}

func (s *service) Get(_ context.Context, identity middleware.Identity, sessionID string) (*SessionResponse, error) {
	sess, err := s.owned(identity, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// ToggleSeat adds the seat to the selection or removes it if present.
// Booked and requires-contact seats are rejected up front; the check is
// advisory only, a concurrent buyer still surfaces as a conflict at
// checkout.
func (s *service) ToggleSeat(ctx context.Context, identity middleware.Identity, sessionID string, req ToggleSeatRequest) (*SessionResponse, error) {
	sess, err := s.owned(identity, sessionID)
	if err != nil {
		return nil, err
	}

	seat, ok := s.seatmapSvc.SeatByID(req.SeatID)
	if !ok {
		return nil, ErrUnknownSeat
	}
	if section, ok := s.seatmapSvc.SectionByID(seat.Section); ok && section.RequiresContact {
		return nil, ErrSeatNotSelectable
	}

	// Only an add needs the availability guard; deselecting is always fine.
	if !sess.Selected(seat.ID) {
		booked, err := s.seatmapSvc.BookedSet(ctx, identity.Token, sess.EventID)
		if err != nil {
			return nil, err
		}
		if _, taken := booked[seatmap.BookedKey(seat.Section, seat.Row, seat.Number)]; taken {
			return nil, ErrSeatBooked
		}
	}

	if _, err := sess.toggle(seat); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *service) ClearSeats(_ context.Context, identity middleware.Identity, sessionID string) (*SessionResponse, error) {
	sess, err := s.owned(identity, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.clear(); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Checkout submits the current selection upstream. The countdown stops
// before the request goes out, so a slow backend never burns the buyer's
// window; a rejected submit restarts it for a fresh retry.
func (s *service) Checkout(ctx context.Context, identity middleware.Identity, sessionID string) (*CheckoutResponse, error) {
	sess, err := s.owned(identity, sessionID)
	if err != nil {
		return nil, err
	}

	seats, err := sess.beginSubmit()
	if err != nil {
		return nil, err
	}

	payload := make([]upstream.SeatPayload, len(seats))
	for i, seat := range seats {
		payload[i] = upstream.SeatPayload{
			Section:    seat.Section,
			Row:        seat.Row,
			SeatNumber: seat.Number,
			Price:      seat.Price,
		}
	}

	var result *upstream.BookingResult
	switch sess.Mode {
	case ModeReserve:
		result, err = s.client.ReserveSeats(ctx, identity.Token, upstream.ReserveRequest{
			EventID:  sess.EventID,
			SellerID: identity.UserID,
			Seats:    payload,
		})
	default:
		result, err = s.client.Book(ctx, identity.Token, upstream.BookRequest{
			EventID: sess.EventID,
			BuyerID: identity.UserID,
			Seats:   payload,
		})
	}

	s.log.LogSessionSubmitted(ctx, sess.ID, string(sess.Mode), len(seats), err)

	if err != nil {
		// A conflict means another buyer won a seat after our snapshot;
		// drop the stale overlay so the next render is honest.
		if upstream.IsConflict(err) {
			if invErr := s.seatmapSvc.Invalidate(ctx, sess.EventID); invErr != nil {
				s.log.ErrorWithContext(ctx, "failed to invalidate booked-seats snapshot", invErr, nil)
			}
			go s.refreshSnapshot(identity.Token, sess.EventID)
		}
		sess.failSubmit(err.Error())
		return nil, err
	}

	sess.completeSubmit(result.OrderID())

	if invErr := s.seatmapSvc.Invalidate(ctx, sess.EventID); invErr != nil {
		s.log.ErrorWithContext(ctx, "failed to invalidate booked-seats snapshot", invErr, nil)
	}
	go s.refreshSnapshot(identity.Token, sess.EventID)

	return &CheckoutResponse{
		SessionID:     sess.ID,
		State:         sess.State(),
		OrderID:       result.OrderID(),
		RedirectAfter: s.cfg.Session.RedirectDelay.Seconds(),
	}, nil
}

// refreshSnapshot re-primes the booked-seats cache in the background so
// the next seat-map render reflects the authoritative state.
func (s *service) refreshSnapshot(token, eventID string) {
	if _, err := s.seatmapSvc.BookedSet(context.Background(), token, eventID); err != nil {
		s.log.ErrorWithContext(context.Background(), "background snapshot refresh failed", err, map[string]interface{}{
			"event_id": eventID,
		})
	}
}

// owned resolves a session and checks the caller owns it. Foreign
// sessions read as not found.
func (s *service) owned(identity middleware.Identity, sessionID string) (*Session, error) {
	sess, ok := s.store.Get(sessionID)
	if !ok || sess.UserID != identity.UserID {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *service) view(sess *Session) *SessionResponse {
	return buildSessionResponse(sess)
}
