package history

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Bookings is the part of repository.BookingRepo the history needs.
type Bookings interface {
	List(ctx context.Context, ns string) (repository.BookingList, error)
	Get(ctx context.Context, ns, txnID string) (model.BookingRecord, error)
	Cancel(ctx context.Context, ns, txnID string, guard func(model.BookingRecord) error) (model.BookingRecord, bool, error)
	Remove(ctx context.Context, ns, txnID string) (model.BookingRecord, error)
}

// SeatReleaser frees the seats of a transaction.
type SeatReleaser interface {
	Release(ctx context.Context, showtimeID, txnID string) (int, error)
}

// Notifier is told about cancelled bookings.
type Notifier interface {
	BookingCancelled(ctx context.Context, clientID string, rec model.BookingRecord) error
}

// Service implements the booking history operations.
type Service struct {
	bookings Bookings
	ledger   SeatReleaser
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
}

// NewService builds a Service.  ledger and notifier may be nil; loc nil
// means time.Local.
func NewService(b Bookings, ledger SeatReleaser, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{bookings: b, ledger: ledger, notifier: notifier, now: time.Now, loc: loc}
}

// WithClock replaces the wall clock; it returns s for chaining.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Result is one page of history.  Degraded means the stored list could not
// be read and the caller should show a load failure banner.
type Result struct {
	Items    []Entry `json:"items"`
	Total    int     `json:"total"`
	Degraded bool    `json:"degraded"`
	Dropped  int     `json:"dropped"`
}

func (s *Service) entry(rec model.BookingRecord, now time.Time) Entry {
	return Entry{
		BookingRecord: rec,
		DisplayStatus: DeriveStatus(rec, now, s.loc),
		CanCancel:     CanCancel(rec, now, s.loc),
	}
}

// List returns the client's bookings filtered and sorted by q.
func (s *Service) List(ctx context.Context, ns string, q Query) (Result, error) {
	list, err := s.bookings.List(ctx, ns)
	if err != nil {
		return Result{}, err
	}
	now := s.now()
	entries := make([]Entry, 0, len(list.Items))
	for _, rec := range list.Items {
		entries = append(entries, s.entry(rec, now))
	}
	items, err := Apply(entries, q)
	if err != nil {
		return Result{}, err
	}
	return Result{Items: items, Total: len(entries), Degraded: list.Degraded, Dropped: list.Dropped}, nil
}

// Get returns one booking with its display status.
func (s *Service) Get(ctx context.Context, ns, txnID string) (Entry, error) {
	rec, err := s.bookings.Get(ctx, ns, txnID)
	if err != nil {
		return Entry{}, err
	}
	return s.entry(rec, s.now()), nil
}

// Cancel marks the booking cancelled and frees its seats.  A booking whose
// showtime has already started cannot be cancelled (repository.ErrConflict);
// cancelling twice is not an error.
func (s *Service) Cancel(ctx context.Context, ns, txnID string) (Entry, error) {
	now := s.now()
	rec, changed, err := s.bookings.Cancel(ctx, ns, txnID, func(cur model.BookingRecord) error {
		if DeriveStatus(cur, now, s.loc) == Completed {
			return fmt.Errorf("%w: booking %s has already taken place", repository.ErrConflict, txnID)
		}
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	if changed {
		log.Printf("history: booking %s cancelled by client %s", txnID, ns)
		s.release(ctx, rec)
		if s.notifier != nil {
			if err := s.notifier.BookingCancelled(ctx, ns, rec); err != nil {
				log.Printf("history: notify cancel of %s: %v", txnID, err)
			}
		}
	}
	return s.entry(rec, now), nil
}

// Remove deletes the booking from the history.
func (s *Service) Remove(ctx context.Context, ns, txnID string) (model.BookingRecord, error) {
	rec, err := s.bookings.Remove(ctx, ns, txnID)
	if err != nil {
		return model.BookingRecord{}, err
	}
	log.Printf("history: booking %s removed by client %s", txnID, ns)
	if rec.Status != model.StatusCancelled {
		s.release(ctx, rec)
	}
	return rec, nil
}

func (s *Service) release(ctx context.Context, rec model.BookingRecord) {
	if s.ledger == nil {
		return
	}
	if _, err := s.ledger.Release(ctx, rec.Showtime.ID, rec.TransactionID()); err != nil {
		log.Printf("history: release seats of %s: %v", rec.TransactionID(), err)
	}
}
