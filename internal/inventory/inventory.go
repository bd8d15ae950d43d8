// Package inventory supplies the showtimes of a movie and the seat grid of
// a showtime.  The Provider interface hides where they come from: the
// random provider synthesizes them, the reconciling provider overlays the
// seats already sold in the seat ledger.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Provider lists the offerings of a movie and the seats of one offering.
type Provider interface {
	ListShowtimes(ctx context.Context, movieID int64) ([]model.Showtime, error)
	ListSeats(ctx context.Context, showtimeID string) ([]model.Seat, error)
}

// ErrUnknownShowtime is returned for a showtime id that does not parse.
var ErrUnknownShowtime = errors.New("unknown showtime")

// Seat grid geometry.
const (
	Rows        = "ABCDEFGHIJ"
	SeatsPerRow = 12
)

// Tier prices by row band.
const (
	PremiumPrice  = 15.0
	StandardPrice = 12.0
	EconomyPrice  = 10.0
)

// SeatPrice returns the price of a seat in the zero-based row.  Rows 0-2 are
// premium, 3-6 standard and 7-9 economy.
func SeatPrice(row int) float64 {
	switch {
	case row < 3:
		return PremiumPrice
	case row < 7:
		return StandardPrice
	default:
		return EconomyPrice
	}
}

// NewSeatGrid builds the full grid in row-major order.  occupied decides
// the occupancy of each seat id; nil means every seat is free.
func NewSeatGrid(occupied func(id string) bool) []model.Seat {
	seats := make([]model.Seat, 0, len(Rows)*SeatsPerRow)
	for r := 0; r < len(Rows); r++ {
		row := string(Rows[r])
		for n := 1; n <= SeatsPerRow; n++ {
			id := fmt.Sprintf("%s%d", row, n)
			seats = append(seats, model.Seat{
				ID:         id,
				Row:        row,
				Number:     n,
				IsOccupied: occupied != nil && occupied(id),
				Price:      SeatPrice(r),
			})
		}
	}
	return seats
}

// ShowtimeID composes the id of a showtime.
func ShowtimeID(movieID int64, theaterID int, date, clock string) string {
	return fmt.Sprintf("%d-%d-%s-%s", movieID, theaterID, date, clock)
}

// ValidShowtimeID reports whether id has the shape produced by ShowtimeID.
func ValidShowtimeID(id string) bool {
	// movie-theater-YYYY-MM-DD-HH:MM
	parts := strings.Split(id, "-")
	return len(parts) == 6 && parts[0] != "" && parts[1] != "" && strings.Contains(parts[5], ":")
}
