// Package wizard implements the four-step booking flow:
//
//	select_showtime -> select_seats -> payment -> confirmation
//
// Sessions live in memory until the payment succeeds.  The booking is then
// appended to the client's bookings, its seats are claimed in the seat
// ledger and the session moves to the terminal confirmation step.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/payment"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// MovieSource loads movie details by id.
type MovieSource interface {
	Details(ctx context.Context, id int64) (model.MovieDetails, error)
}

// BookingStore persists completed bookings.  repository.BookingRepo
// satisfies it.
type BookingStore interface {
	Append(ctx context.Context, ns string, rec model.BookingRecord) (model.BookingRecord, error)
	Reconfirm(ctx context.Context, ns string, rec model.BookingRecord) error
}

// SeatClaimer records seat ownership.  repository.SeatLedger satisfies it.
type SeatClaimer interface {
	Claim(ctx context.Context, showtimeID, txnID string, seatIDs []string) error
	Release(ctx context.Context, showtimeID, txnID string) (int, error)
}

// Notifier is told about confirmed bookings.  Failures are logged only.
type Notifier interface {
	BookingConfirmed(ctx context.Context, clientID string, rec model.BookingRecord) error
}

// Config holds the collaborators of a Wizard.  Ledger and Notifier are
// optional.
type Config struct {
	Movies    MovieSource
	Inventory inventory.Provider
	Payments  payment.Processor
	Bookings  BookingStore
	Ledger    SeatClaimer
	Notifier  Notifier
	// SessionTTL is how long an untouched session survives; zero keeps
	// sessions until they are abandoned.
	SessionTTL time.Duration
	Now        func() time.Time
}

// Wizard runs booking sessions.
type Wizard struct {
	cfg      Config
	sessions *sessions
	now      func() time.Time
}

func New(cfg Config) *Wizard {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Wizard{cfg: cfg, sessions: newSessions(cfg.SessionTTL, now), now: now}
}

// RunJanitor expires idle sessions every interval until ctx ends.
func (w *Wizard) RunJanitor(ctx context.Context, every time.Duration) {
	w.sessions.runJanitor(ctx, every)
}

// Sweep expires idle sessions now and returns how many were dropped.
func (w *Wizard) Sweep() int { return w.sessions.sweep() }

// Active returns the number of live sessions.
func (w *Wizard) Active() int { return w.sessions.len() }

// with runs fn on the locked session and returns its snapshot.  fn returning
// an error leaves UpdatedAt unchanged.
func (w *Wizard) with(clientID, id string, fn func(e *entry) error) (Session, error) {
	e, err := w.sessions.lookup(clientID, id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paying {
		return e.snapshot(), ErrPaymentPending
	}
	if err := fn(e); err != nil {
		return e.snapshot(), err
	}
	e.touch(w.now())
	return e.snapshot(), nil
}

func expect(op string, have, want Step) error {
	if have != want {
		return &StepError{Op: op, Have: have, Want: want}
	}
	return nil
}

// Start opens a session for the movie and lists its showtimes.
func (w *Wizard) Start(ctx context.Context, clientID string, movieID int64) (Session, error) {
	details, err := w.cfg.Movies.Details(ctx, movieID)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrMovieUnavailable, err)
	}
	shows, err := w.cfg.Inventory.ListShowtimes(ctx, movieID)
	if err != nil {
		return Session{}, fmt.Errorf("wizard: list showtimes: %w", err)
	}
	e := w.sessions.create(clientID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.Movie = details.Summary()
	e.s.Step = SelectShowtime
	e.s.Showtimes = shows
	e.s.Selected = []model.Seat{}
	return e.snapshot(), nil
}

// Get returns the current state of a session.
func (w *Wizard) Get(clientID, id string) (Session, error) {
	e, err := w.sessions.lookup(clientID, id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// Abandon discards the session.  Nothing was persisted for it unless it
// already reached confirmation.
func (w *Wizard) Abandon(clientID, id string) error {
	e, err := w.sessions.lookup(clientID, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paying {
		return ErrPaymentPending
	}
	w.sessions.remove(id)
	return nil
}

// SelectShowtime picks a showtime and loads its seat map.  A sold out
// showtime is rejected and the session stays where it was.
func (w *Wizard) SelectShowtime(ctx context.Context, clientID, id, showtimeID string) (Session, error) {
	return w.with(clientID, id, func(e *entry) error {
		if err := expect("select showtime", e.s.Step, SelectShowtime); err != nil {
			return err
		}
		var chosen *model.Showtime
		for i := range e.s.Showtimes {
			if e.s.Showtimes[i].ID == showtimeID {
				st := e.s.Showtimes[i]
				chosen = &st
				break
			}
		}
		if chosen == nil {
			return ErrUnknownShowtime
		}
		if chosen.AvailableSeats <= 0 {
			return ErrSoldOut
		}
		seats, err := w.cfg.Inventory.ListSeats(ctx, chosen.ID)
		if err != nil {
			return fmt.Errorf("wizard: list seats: %w", err)
		}
		e.s.Showtime = chosen
		e.s.SeatMap = seats
		e.s.Selected = []model.Seat{}
		e.s.Total = 0
		e.s.Step = SelectSeats
		return nil
	})
}

// ToggleSeat adds the seat to the selection or removes it.
func (w *Wizard) ToggleSeat(clientID, id, seatID string) (Session, error) {
	return w.with(clientID, id, func(e *entry) error {
		if err := expect("toggle seat", e.s.Step, SelectSeats); err != nil {
			return err
		}
		var seat *model.Seat
		for i := range e.s.SeatMap {
			if e.s.SeatMap[i].ID == seatID {
				seat = &e.s.SeatMap[i]
				break
			}
		}
		if seat == nil {
			return ErrUnknownSeat
		}
		if seat.IsOccupied {
			return ErrSeatOccupied
		}
		for i, s := range e.s.Selected {
			if s.ID == seatID {
				e.s.Selected = append(e.s.Selected[:i], e.s.Selected[i+1:]...)
				e.s.Total = sumPrices(e.s.Selected)
				return nil
			}
		}
		e.s.Selected = append(e.s.Selected, *seat)
		e.s.Total = sumPrices(e.s.Selected)
		return nil
	})
}

func sumPrices(seats []model.Seat) float64 {
	total := 0.0
	for _, s := range seats {
		total += s.Price
	}
	return total
}

// ConfirmSeats fixes the selection and its total and moves to payment.
func (w *Wizard) ConfirmSeats(clientID, id string) (Session, error) {
	return w.with(clientID, id, func(e *entry) error {
		if err := expect("confirm seats", e.s.Step, SelectSeats); err != nil {
			return err
		}
		if len(e.s.Selected) == 0 {
			return ErrNoSeats
		}
		e.s.Total = sumPrices(e.s.Selected)
		e.s.Step = Payment
		return nil
	})
}

// Back returns to the previous step.  Leaving seat selection drops the
// chosen showtime and seats; leaving payment keeps the selection.
func (w *Wizard) Back(clientID, id string) (Session, error) {
	return w.with(clientID, id, func(e *entry) error {
		switch e.s.Step {
		case SelectSeats:
			e.s.Showtime = nil
			e.s.SeatMap = nil
			e.s.Selected = []model.Seat{}
			e.s.Total = 0
			e.s.Step = SelectShowtime
		case Payment:
			e.s.Step = SelectSeats
		default:
			return ErrNoBack
		}
		return nil
	})
}

// SubmitPayment validates the form, runs the payment processor and stores
// the booking.  Validation failures return payment.FieldErrors and change
// nothing.  If ctx ends while the payment is processing nothing is stored.
// When another booking bought one of the seats in the meantime the session
// goes back to seat selection with a refreshed seat map and the error wraps
// repository.ErrSeatTaken.
//
// The session lock is released while the processor runs: Get keeps
// answering (with Paying set) and every other step, including a second
// submission, fails with ErrPaymentPending.
func (w *Wizard) SubmitPayment(ctx context.Context, clientID, id string, form payment.Form) (Session, error) {
	e, err := w.sessions.lookup(clientID, id)
	if err != nil {
		return Session{}, err
	}
	e.mu.Lock()
	if e.paying {
		defer e.mu.Unlock()
		return e.snapshot(), ErrPaymentPending
	}
	if err := expect("submit payment", e.s.Step, Payment); err != nil {
		defer e.mu.Unlock()
		return e.snapshot(), err
	}
	if err := payment.Validate(form); err != nil {
		defer e.mu.Unlock()
		return e.snapshot(), err
	}
	total := e.s.Total
	e.paying = true
	e.mu.Unlock()

	info, err := w.cfg.Payments.Process(ctx, total, form)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.paying = false
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = w.store(ctx, clientID, e, info)
	}
	if err != nil {
		return e.snapshot(), err
	}
	e.touch(w.now())
	return e.snapshot(), nil
}

// store claims the seats and appends the paid booking.  The caller holds
// e.mu.
func (w *Wizard) store(ctx context.Context, clientID string, e *entry, info model.PaymentInfo) error {
	rec := model.BookingRecord{
		Movie:       e.s.Movie,
		Showtime:    *e.s.Showtime,
		Seats:       append([]model.Seat(nil), e.s.Selected...),
		TotalPrice:  e.s.Total,
		PaymentInfo: info,
		Status:      model.StatusConfirmed,
		BookingDate: w.now().UTC(),
	}
	for i := range rec.Seats {
		rec.Seats[i].IsOccupied = true
	}

	// the payment went through; the booking is stored even if the caller
	// stops waiting now
	store := context.WithoutCancel(ctx)
	if w.cfg.Ledger != nil {
		if err := w.cfg.Ledger.Claim(store, rec.Showtime.ID, info.TransactionID, rec.SeatIDs()); err != nil {
			if errors.Is(err, repository.ErrSeatTaken) {
				w.refreshSeats(store, e)
			}
			return err
		}
	}
	rec, err := w.cfg.Bookings.Append(store, clientID, rec)
	if err != nil {
		if w.cfg.Ledger != nil {
			if _, rerr := w.cfg.Ledger.Release(store, rec.Showtime.ID, info.TransactionID); rerr != nil {
				log.Printf("wizard: release seats of %s: %v", info.TransactionID, rerr)
			}
		}
		return fmt.Errorf("wizard: store booking: %w", err)
	}
	log.Printf("wizard: booking %s stored for client %s (%d seats, total %.2f)",
		info.TransactionID, clientID, len(rec.Seats), rec.TotalPrice)

	if w.cfg.Notifier != nil {
		if err := w.cfg.Notifier.BookingConfirmed(store, clientID, rec); err != nil {
			log.Printf("wizard: notify booking %s: %v", info.TransactionID, err)
		}
	}
	e.s.Booking = &rec
	e.s.Step = Confirmation
	return nil
}

// refreshSeats reloads the seat map after a lost seat race and drops seats
// that are no longer free from the selection.  The caller holds e.mu.
func (w *Wizard) refreshSeats(ctx context.Context, e *entry) {
	seats, err := w.cfg.Inventory.ListSeats(ctx, e.s.Showtime.ID)
	if err != nil {
		log.Printf("wizard: refresh seats of %s: %v", e.s.Showtime.ID, err)
		return
	}
	free := make(map[string]bool, len(seats))
	for _, s := range seats {
		if !s.IsOccupied {
			free[s.ID] = true
		}
	}
	// keep the selected seats that are still free
	kept := e.s.Selected[:0]
	for _, s := range e.s.Selected {
		if free[s.ID] {
			kept = append(kept, s)
		}
	}
	e.s.SeatMap = seats
	e.s.Selected = kept
	e.s.Total = sumPrices(kept)
	e.s.Step = SelectSeats
}

// Confirm writes the confirmed booking again, keyed by the transaction id, so
// repeating it never creates a duplicate.  Once the booking was cancelled or
// removed from the history Confirm fails with repository.ErrConflict or
// repository.ErrNotFound and stores nothing.
func (w *Wizard) Confirm(ctx context.Context, clientID, id string) (Session, error) {
	return w.with(clientID, id, func(e *entry) error {
		if err := expect("confirm", e.s.Step, Confirmation); err != nil {
			return err
		}
		if err := w.cfg.Bookings.Reconfirm(ctx, clientID, *e.s.Booking); err != nil {
			return fmt.Errorf("wizard: confirm booking: %w", err)
		}
		return nil
	})
}
