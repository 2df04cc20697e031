package seatmap

import "fmt"

// SeatRange is an explicit seat-number range for one column of an
// irregular-layout section.
type SeatRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns how many seats the range addresses.
func (r SeatRange) Len() int {
	return r.End - r.Start + 1
}

// Section is static venue configuration, fixed for the lifetime of the
// process. Seats are derived from it on demand and never persisted.
//
// Regular sections address seats by (row, column, seatIndex) with a fixed
// SeatsPerRow per column block. Irregular sections instead declare one
// explicit seat-number range per column.
type Section struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Color string  `json:"color"`
	Rows  int     `json:"rows"`

	// Regular layout
	Columns     int `json:"columns,omitempty"`
	SeatsPerRow int `json:"seatsPerRow,omitempty"`

	// Irregular layout; takes precedence over Columns/SeatsPerRow when set
	ColumnRanges []SeatRange `json:"columnRanges,omitempty"`

	// RequiresContact sections are never directly selectable; buyers are
	// handed off to the organizer instead.
	RequiresContact bool `json:"requiresContact"`
}

// Irregular reports whether the section uses explicit per-column ranges.
func (s Section) Irregular() bool {
	return len(s.ColumnRanges) > 0
}

// SeatsPerRowTotal returns how many seats one row addresses.
func (s Section) SeatsPerRowTotal() int {
	if s.Irregular() {
		total := 0
		for _, r := range s.ColumnRanges {
			total += r.Len()
		}
		return total
	}
	return s.Columns * s.SeatsPerRow
}

// Capacity returns the total addressable seats of the section.
func (s Section) Capacity() int {
	return s.Rows * s.SeatsPerRowTotal()
}

// Seat is a derived, never-persisted projection of section configuration.
// (Section, Row, Number) uniquely identifies a seat within an event.
type Seat struct {
	ID      string  `json:"id"`
	Section string  `json:"section"`
	Row     string  `json:"row"`
	Number  int     `json:"number"`
	Price   float64 `json:"price"`
	Name    string  `json:"name"`
}

// RowLetter converts a zero-based row index into its display letter
// (A..Z, then AA, AB, ...).
func RowLetter(rowIdx int) string {
	if rowIdx < 26 {
		return string(rune('A' + rowIdx))
	}
	return RowLetter(rowIdx/26-1) + string(rune('A'+rowIdx%26))
}

// SeatID derives the composite seat identifier from section and position.
func SeatID(sectionID string, rowIdx, colIdx, seatIdx int) string {
	return fmt.Sprintf("%s-r%d-c%d-s%d", sectionID, rowIdx, colIdx, seatIdx)
}

// SeatNumber computes the display seat number for a position within a
// section. Regular sections number seats colIdx*seatsPerRow + seatIdx + 1;
// irregular sections use the declared range start plus the offset.
func SeatNumber(s Section, colIdx, seatIdx int) int {
	if s.Irregular() {
		return s.ColumnRanges[colIdx].Start + seatIdx
	}
	return colIdx*s.SeatsPerRow + seatIdx + 1
}

// SeatsInSection derives every seat of a section in row-major order.
// Pure: the same configuration always yields the same seats.
func SeatsInSection(s Section) []Seat {
	seats := make([]Seat, 0, s.Capacity())
	columns := s.Columns
	if s.Irregular() {
		columns = len(s.ColumnRanges)
	}

	for rowIdx := 0; rowIdx < s.Rows; rowIdx++ {
		row := RowLetter(rowIdx)
		for colIdx := 0; colIdx < columns; colIdx++ {
			perColumn := s.SeatsPerRow
			if s.Irregular() {
				perColumn = s.ColumnRanges[colIdx].Len()
			}
			for seatIdx := 0; seatIdx < perColumn; seatIdx++ {
				number := SeatNumber(s, colIdx, seatIdx)
				seats = append(seats, Seat{
					ID:      SeatID(s.ID, rowIdx, colIdx, seatIdx),
					Section: s.ID,
					Row:     row,
					Number:  number,
					Price:   s.Price,
					Name:    fmt.Sprintf("%s%d", row, number),
				})
			}
		}
	}
	return seats
}

// DefaultSections is the static venue layout served by the gateway.
func DefaultSections() []Section {
	return []Section{
		{
			ID:          "ground",
			Name:        "Ground Floor",
			Price:       80,
			Color:       "#4caf50",
			Rows:        8,
			Columns:     4,
			SeatsPerRow: 10,
		},
		{
			ID:          "balcony",
			Name:        "Balcony",
			Price:       50,
			Color:       "#2196f3",
			Rows:        6,
			Columns:     3,
			SeatsPerRow: 12,
		},
		{
			ID:    "orchestra",
			Name:  "Orchestra Pit",
			Price: 120,
			Color: "#ff9800",
			Rows:  4,
			ColumnRanges: []SeatRange{
				{Start: 1, End: 8},
				{Start: 9, End: 20},
				{Start: 21, End: 28},
			},
		},
		{
			ID:              "vip",
			Name:            "VIP Boxes",
			Price:           500,
			Color:           "#9c27b0",
			Rows:            2,
			Columns:         1,
			SeatsPerRow:     6,
			RequiresContact: true,
		},
	}
}
