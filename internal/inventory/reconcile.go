package inventory

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SoldSeats reports which seats of a showtime are already sold, as seat id
// to owning transaction id.  repository.SeatLedger satisfies it.
type SoldSeats interface {
	Taken(ctx context.Context, showtimeID string) (map[string]string, error)
}

// ReconcilingProvider wraps another Provider and marks every seat recorded
// in the ledger as occupied, so a seat sold to one booking is never offered
// to another.
type ReconcilingProvider struct {
	Base   Provider
	Ledger SoldSeats
}

func NewReconcilingProvider(base Provider, ledger SoldSeats) *ReconcilingProvider {
	return &ReconcilingProvider{Base: base, Ledger: ledger}
}

// ListShowtimes lowers each showtime's AvailableSeats by the number of seats
// sold for it, never below zero.
func (p *ReconcilingProvider) ListShowtimes(ctx context.Context, movieID int64) ([]model.Showtime, error) {
	shows, err := p.Base.ListShowtimes(ctx, movieID)
	if err != nil {
		return nil, err
	}
	for i := range shows {
		taken, err := p.Ledger.Taken(ctx, shows[i].ID)
		if err != nil {
			return nil, err
		}
		if n := shows[i].AvailableSeats - len(taken); n > 0 {
			shows[i].AvailableSeats = n
		} else {
			shows[i].AvailableSeats = 0
		}
	}
	return shows, nil
}

func (p *ReconcilingProvider) ListSeats(ctx context.Context, showtimeID string) ([]model.Seat, error) {
	seats, err := p.Base.ListSeats(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	taken, err := p.Ledger.Taken(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	for i := range seats {
		if _, sold := taken[seats[i].ID]; sold {
			seats[i].IsOccupied = true
		}
	}
	return seats, nil
}
