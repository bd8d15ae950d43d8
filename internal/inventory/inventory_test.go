package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

func fixedClock() time.Time { return time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC) }

func TestSeatGridShapeAndPricing(t *testing.T) {
	t.Parallel()
	p := NewRandomProvider(WithSeed(7))

	for i := 0; i < 20; i++ {
		seats, err := p.ListSeats(context.Background(), "1-1-2030-01-02-10:00")
		require.NoError(t, err)
		require.Len(t, seats, 120)

		perRow := map[string]int{}
		for _, s := range seats {
			perRow[s.Row]++
			r := int(s.Row[0] - 'A')
			switch {
			case r <= 2:
				assert.Equal(t, 15.0, s.Price, s.ID)
			case r <= 6:
				assert.Equal(t, 12.0, s.Price, s.ID)
			default:
				assert.Equal(t, 10.0, s.Price, s.ID)
			}
		}
		assert.Len(t, perRow, 10)
		for row, n := range perRow {
			assert.Equal(t, 12, n, row)
		}
	}
}

func TestSeatGridOccupancyRate(t *testing.T) {
	t.Parallel()
	p := NewRandomProvider(WithSeed(42))
	occupied, total := 0, 0
	for i := 0; i < 200; i++ {
		seats, err := p.ListSeats(context.Background(), "1-1-2030-01-02-10:00")
		require.NoError(t, err)
		for _, s := range seats {
			total++
			if s.IsOccupied {
				occupied++
			}
		}
	}
	assert.InDelta(t, OccupiedProbability, float64(occupied)/float64(total), 0.02)
}

func TestListShowtimes(t *testing.T) {
	t.Parallel()
	p := NewRandomProvider(WithSeed(1), WithClock(fixedClock), WithLocation(time.UTC))

	shows, err := p.ListShowtimes(context.Background(), 27205)
	require.NoError(t, err)
	require.Len(t, shows, 105)

	assert.Equal(t, "27205-1-2030-01-02-10:00", shows[0].ID)
	assert.Equal(t, "2030-01-08", shows[len(shows)-1].Date)

	ids := map[string]bool{}
	for _, s := range shows {
		assert.False(t, ids[s.ID], "duplicate id %s", s.ID)
		ids[s.ID] = true
		assert.True(t, ValidShowtimeID(s.ID), s.ID)
		assert.GreaterOrEqual(t, s.Price, 12.0)
		assert.LessOrEqual(t, s.Price, 16.0)
		assert.GreaterOrEqual(t, s.AvailableSeats, 20)
		assert.Less(t, s.AvailableSeats, 50)
		assert.Contains(t, []string{"Standard", "IMAX"}, s.ScreenType)
	}
}

func TestListSeatsUnknownShowtime(t *testing.T) {
	t.Parallel()
	_, err := NewRandomProvider().ListSeats(context.Background(), "bogus")
	assert.ErrorIs(t, err, ErrUnknownShowtime)
}

func TestRandomProviderHonoursContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRandomProvider().ListShowtimes(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconcilingProviderMarksSoldSeats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewActor(kvstore.NewMemoryStore(), 0)
	defer store.Close()
	ledger := repository.NewSeatLedger(store)

	base := NewRandomProvider(WithSeed(3), WithClock(fixedClock), WithLocation(time.UTC))
	p := NewReconcilingProvider(base, ledger)

	shows, err := base.ListShowtimes(ctx, 9)
	require.NoError(t, err)
	show := shows[0]
	require.NoError(t, ledger.Claim(ctx, show.ID, "TXN1", []string{"A1", "J12"}))

	seats, err := p.ListSeats(ctx, show.ID)
	require.NoError(t, err)
	for _, s := range seats {
		if s.ID == "A1" || s.ID == "J12" {
			assert.True(t, s.IsOccupied, s.ID)
		}
	}

	reconciled, err := NewReconcilingProvider(NewRandomProvider(WithSeed(3), WithClock(fixedClock), WithLocation(time.UTC)), ledger).
		ListShowtimes(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, show.AvailableSeats-2, reconciled[0].AvailableSeats)
	assert.Equal(t, shows[1].AvailableSeats, reconciled[1].AvailableSeats)
}
