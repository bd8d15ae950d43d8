package inventory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Theaters are the venues every movie plays in.
var Theaters = []model.Theater{
	{ID: 1, Name: "AMC Theater Downtown", Address: "123 Main St, City"},
	{ID: 2, Name: "Cineplex Premium", Address: "456 Oak Ave, City"},
	{ID: 3, Name: "Star Cinema", Address: "789 Pine Rd, City"},
}

// Times are the daily start times.
var Times = []string{"10:00", "13:00", "16:00", "19:00", "22:00"}

// Days is how many days ahead showtimes are offered, today included.
const Days = 7

// OccupiedProbability is the chance a generated seat is already taken.
const OccupiedProbability = 0.2

// RandomProvider synthesizes showtimes and seat grids.  Every call draws
// fresh values; nothing is remembered between calls.
type RandomProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
	loc *time.Location
}

// RandomOption customizes a RandomProvider.
type RandomOption func(*RandomProvider)

// WithSeed makes the output reproducible.
func WithSeed(seed int64) RandomOption {
	return func(p *RandomProvider) { p.rng = rand.New(rand.NewSource(seed)) }
}

// WithClock sets the source of "today".
func WithClock(now func() time.Time) RandomOption {
	return func(p *RandomProvider) { p.now = now }
}

// WithLocation sets the time zone showtime dates are computed in.
func WithLocation(loc *time.Location) RandomOption {
	return func(p *RandomProvider) { p.loc = loc }
}

func NewRandomProvider(opts ...RandomOption) *RandomProvider {
	p := &RandomProvider{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
		loc: time.Local,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ListShowtimes returns Days x len(Theaters) x len(Times) showtimes ordered
// by day, theater and time.  Price is 12..16 and availability 20..49.
func (p *RandomProvider) ListShowtimes(ctx context.Context, movieID int64) ([]model.Showtime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	today := p.now().In(p.loc)
	out := make([]model.Showtime, 0, Days*len(Theaters)*len(Times))
	for day := 0; day < Days; day++ {
		date := today.AddDate(0, 0, day).Format(model.ShowtimeDateLayout)
		for _, th := range Theaters {
			for _, clock := range Times {
				screen := "Standard"
				if p.rng.Float64() > 0.5 {
					screen = "IMAX"
				}
				out = append(out, model.Showtime{
					ID:             ShowtimeID(movieID, th.ID, date, clock),
					Theater:        th,
					Date:           date,
					Time:           clock,
					ScreenType:     screen,
					Price:          float64(p.rng.Intn(5) + 12),
					AvailableSeats: p.rng.Intn(30) + 20,
				})
			}
		}
	}
	return out, nil
}

// ListSeats returns a fresh grid with roughly OccupiedProbability of the
// seats occupied.
func (p *RandomProvider) ListSeats(ctx context.Context, showtimeID string) ([]model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidShowtimeID(showtimeID) {
		return nil, ErrUnknownShowtime
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return NewSeatGrid(func(string) bool { return p.rng.Float64() < OccupiedProbability }), nil
}
