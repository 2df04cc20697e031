package seatmap

import (
	"context"
	"fmt"

	"ticketgate/internal/shared/config"
	"ticketgate/internal/shared/constants"
	"ticketgate/internal/upstream"
	"ticketgate/pkg/cache"
)

// SeatStatus is a seat plus its advisory availability.
type SeatStatus struct {
	Seat
	Booked bool `json:"booked"`
}

// SectionView is a section plus its derived seats. RequiresContact
// sections carry no seats; the client renders a contact-organizer action
// instead.
type SectionView struct {
	Section
	Seats []SeatStatus `json:"seats,omitempty"`
}

// View is the full seat map for one event with the booked overlay applied.
// The overlay is advisory only: another buyer can still win a seat between
// this snapshot and checkout, which surfaces as a conflict at submit time.
type View struct {
	EventID     string        `json:"event_id"`
	Sections    []SectionView `json:"sections"`
	TotalBooked int           `json:"total_booked"`
}

// ContactHandoff carries the metadata handed to the external messaging
// flow for requires-contact sections.
type ContactHandoff struct {
	EventID     string  `json:"event_id"`
	SectionID   string  `json:"section_id"`
	SectionName string  `json:"section_name"`
	Price       float64 `json:"price"`
	Capacity    int     `json:"capacity"`
}

type Service interface {
	// Sections returns the static venue configuration.
	Sections() []Section
	SectionByID(id string) (Section, bool)

	// SeatByID resolves a derived seat from its composite id.
	SeatByID(id string) (Seat, bool)

	// View builds the seat map for an event with the booked overlay.
	View(ctx context.Context, token, eventID string) (*View, error)

	// BookedSet returns the advisory set of booked seats, keyed by
	// BookedKey.
	BookedSet(ctx context.Context, token, eventID string) (map[string]struct{}, error)

	// Invalidate drops the cached snapshot so the next View re-fetches.
	Invalidate(ctx context.Context, eventID string) error

	// ContactHandoff resolves the handoff metadata for a
	// requires-contact section.
	ContactHandoff(eventID, sectionID string) (*ContactHandoff, error)
}

type service struct {
	sections []Section
	byID     map[string]Section
	seats    map[string]Seat
	client   upstream.Client
	cacheSvc cache.Service
	cfg      *config.Config
}

func NewService(sections []Section, client upstream.Client, cacheSvc cache.Service, cfg *config.Config) Service {
	s := &service{
		sections: sections,
		byID:     make(map[string]Section, len(sections)),
		seats:    make(map[string]Seat),
		client:   client,
		cacheSvc: cacheSvc,
		cfg:      cfg,
	}
	for _, section := range sections {
		s.byID[section.ID] = section
		for _, seat := range SeatsInSection(section) {
			s.seats[seat.ID] = seat
		}
	}
	return s
}

// BookedKey builds the lookup key used to match derived seats against the
// upstream snapshot.
func BookedKey(section, row string, number int) string {
	return fmt.Sprintf("%s|%s|%d", section, row, number)
}

func (s *service) Sections() []Section {
	return s.sections
}

func (s *service) SectionByID(id string) (Section, bool) {
	section, ok := s.byID[id]
	return section, ok
}

func (s *service) SeatByID(id string) (Seat, bool) {
	seat, ok := s.seats[id]
	return seat, ok
}

func (s *service) BookedSet(ctx context.Context, token, eventID string) (map[string]struct{}, error) {
	var seats []upstream.BookedSeat
	key := constants.BuildBookedSeatsKey(eventID)

	err := s.cacheSvc.GetOrSet(ctx, key, s.cfg.Redis.BookedSeatsTTL, func() (interface{}, error) {
		resp, err := s.client.BookedSeats(ctx, token, eventID)
		if err != nil {
			return nil, err
		}
		return resp.Seats, nil
	}, &seats)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booked seats: %w", err)
	}

	set := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		set[BookedKey(seat.Section, seat.Row, seat.SeatNumber)] = struct{}{}
	}
	return set, nil
}

func (s *service) View(ctx context.Context, token, eventID string) (*View, error) {
	booked, err := s.BookedSet(ctx, token, eventID)
	if err != nil {
		return nil, err
	}

	view := &View{
		EventID:     eventID,
		Sections:    make([]SectionView, 0, len(s.sections)),
		TotalBooked: len(booked),
	}

	for _, section := range s.sections {
		sectionView := SectionView{Section: section}
		if !section.RequiresContact {
			seats := SeatsInSection(section)
			sectionView.Seats = make([]SeatStatus, len(seats))
			for i, seat := range seats {
				_, isBooked := booked[BookedKey(seat.Section, seat.Row, seat.Number)]
				sectionView.Seats[i] = SeatStatus{Seat: seat, Booked: isBooked}
			}
		}
		view.Sections = append(view.Sections, sectionView)
	}

	return view, nil
}

func (s *service) Invalidate(ctx context.Context, eventID string) error {
	return s.cacheSvc.Delete(ctx, constants.BuildBookedSeatsKey(eventID))
}

func (s *service) ContactHandoff(eventID, sectionID string) (*ContactHandoff, error) {
	section, ok := s.byID[sectionID]
	if !ok {
		return nil, fmt.Errorf("unknown section %q", sectionID)
	}
	if !section.RequiresContact {
		return nil, fmt.Errorf("section %q does not require organizer contact", sectionID)
	}
	return &ContactHandoff{
		EventID:     eventID,
		SectionID:   section.ID,
		SectionName: section.Name,
		Price:       section.Price,
		Capacity:    section.Capacity(),
	}, nil
}
