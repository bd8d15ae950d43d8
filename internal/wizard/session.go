package wizard

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Session is the in-memory state of one booking in progress.  Nothing in a
// session is persisted before the payment succeeds.
type Session struct {
	ID        string               `json:"id"`
	ClientID  string               `json:"-"`
	Step      Step                 `json:"step"`
	Movie     model.MovieSummary   `json:"movie"`
	Showtimes []model.Showtime     `json:"showtimes,omitempty"`
	Showtime  *model.Showtime      `json:"showtime,omitempty"`
	SeatMap   []model.Seat         `json:"seatMap,omitempty"`
	Selected  []model.Seat         `json:"selectedSeats"`
	Total     float64              `json:"totalPrice"`
	Booking   *model.BookingRecord `json:"booking,omitempty"`
	Paying    bool                 `json:"paying,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// entry guards one session; every step of a session runs under mu.
type entry struct {
	mu sync.Mutex
	s  Session
	// paying is set while SubmitPayment waits for the processor without
	// holding mu; other steps are refused until it clears.
	paying bool

	touched atomic.Int64 // unix nanos of the last completed step
}

func (e *entry) touch(t time.Time) {
	e.s.UpdatedAt = t
	e.touched.Store(t.UnixNano())
}

// snapshot returns a copy safe to hand out while the session keeps
// changing.  The caller must hold e.mu.
func (e *entry) snapshot() Session {
	s := &e.s
	out := Session{
		ID:        s.ID,
		ClientID:  s.ClientID,
		Step:      s.Step,
		Movie:     s.Movie,
		Showtimes: append([]model.Showtime(nil), s.Showtimes...),
		SeatMap:   append([]model.Seat(nil), s.SeatMap...),
		Selected:  append([]model.Seat{}, s.Selected...),
		Total:     s.Total,
		Paying:    e.paying,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Showtime != nil {
		st := *s.Showtime
		out.Showtime = &st
	}
	if s.Booking != nil {
		b := *s.Booking
		b.Seats = append([]model.Seat(nil), s.Booking.Seats...)
		out.Booking = &b
	}
	return out
}

// sessions is the registry of live sessions keyed by id.
type sessions struct {
	mu  sync.RWMutex
	m   map[string]*entry
	ttl time.Duration
	now func() time.Time
}

func newSessions(ttl time.Duration, now func() time.Time) *sessions {
	return &sessions{m: make(map[string]*entry), ttl: ttl, now: now}
}

func (r *sessions) create(clientID string) *entry {
	now := r.now()
	e := &entry{s: Session{ID: uuid.NewString(), ClientID: clientID, CreatedAt: now}}
	e.touch(now)
	r.mu.Lock()
	r.m[e.s.ID] = e
	r.mu.Unlock()
	return e
}

// lookup returns the session if it exists, belongs to clientID and has not
// expired.
func (r *sessions) lookup(clientID, id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.m[id]
	r.mu.RUnlock()
	// ClientID never changes after create
	if !ok || e.s.ClientID != clientID {
		return nil, ErrSessionNotFound
	}
	if r.expired(e) {
		r.remove(id)
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (r *sessions) expired(e *entry) bool {
	if r.ttl <= 0 {
		return false
	}
	return r.now().UnixNano()-e.touched.Load() > int64(r.ttl)
}

func (r *sessions) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.m[id]
	delete(r.m, id)
	return ok
}

func (r *sessions) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// sweep drops every expired session and returns how many were dropped.
func (r *sessions) sweep() int {
	r.mu.RLock()
	var stale []string
	for id, e := range r.m {
		if r.expired(e) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()
	for _, id := range stale {
		r.remove(id)
	}
	return len(stale)
}

// runJanitor sweeps every interval until ctx ends.
func (r *sessions) runJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.sweep(); n > 0 {
				log.Printf("wizard: expired %d idle booking session(s)", n)
			}
		}
	}
}
