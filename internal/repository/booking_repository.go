package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// BookingRepo reads and writes the bookings blob of a client namespace.
// The blob is a JSON array of booking records.  Every mutation is a full
// read-modify-write executed as one store Update.
type BookingRepo struct {
	store BlobStore
}

// NewBookingRepo returns a BookingRepo over the given store.
func NewBookingRepo(s BlobStore) *BookingRepo { return &BookingRepo{store: s} }

// BookingList is the result of reading the bookings blob.
//
// Degraded is set when the blob could not be parsed at all; Items is empty
// in that case.  Dropped counts individual records that were rejected by
// NormalizeBooking and removed from the stored list.
type BookingList struct {
	Items    []model.BookingRecord `json:"items"`
	Degraded bool                  `json:"degraded"`
	Dropped  int                   `json:"dropped"`
}

// NormalizeBooking validates rec and returns it in canonical form.  A record
// needs a transaction id, a movie title and a showtime date.  Status is
// lower-cased; an empty status means confirmed.
func NormalizeBooking(rec model.BookingRecord) (model.BookingRecord, error) {
	rec.PaymentInfo.TransactionID = strings.TrimSpace(rec.PaymentInfo.TransactionID)
	if rec.PaymentInfo.TransactionID == "" {
		return rec, ValidationError{Field: "paymentInfo.transactionId", Msg: "is required"}
	}
	if strings.TrimSpace(rec.Movie.Title) == "" {
		return rec, ValidationError{Field: "movie.title", Msg: "is required"}
	}
	if strings.TrimSpace(rec.Showtime.Date) == "" {
		return rec, ValidationError{Field: "showtime.date", Msg: "is required"}
	}
	switch strings.ToLower(strings.TrimSpace(string(rec.Status))) {
	case "", "confirmed":
		rec.Status = model.StatusConfirmed
	case "cancelled", "canceled":
		rec.Status = model.StatusCancelled
	default:
		return rec, ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", rec.Status)}
	}
	if rec.TotalPrice < 0 {
		return rec, ValidationError{Field: "totalPrice", Msg: "must not be negative"}
	}
	if rec.Seats == nil {
		rec.Seats = []model.Seat{}
	}
	return rec, nil
}

// decodeBookings parses the blob record by record so that one malformed
// entry does not hide the others.
func decodeBookings(b []byte) (items []model.BookingRecord, dropped int, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, 0, err
	}
	items = make([]model.BookingRecord, 0, len(raws))
	for _, raw := range raws {
		var rec model.BookingRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			dropped++
			continue
		}
		rec, err := NormalizeBooking(rec)
		if err != nil {
			dropped++
			continue
		}
		items = append(items, rec)
	}
	return items, dropped, nil
}

func encodeBookings(items []model.BookingRecord) ([]byte, error) {
	if items == nil {
		items = []model.BookingRecord{}
	}
	return json.Marshal(items)
}

// List returns all valid bookings of ns in stored order.  When malformed
// records are found the cleaned list is written back, discarding them.
func (r *BookingRepo) List(ctx context.Context, ns string) (BookingList, error) {
	key := kvstore.Key(ns, kvstore.BookingsKey)
	out := BookingList{Items: []model.BookingRecord{}}
	err := r.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		if !ok {
			return nil, false, nil
		}
		items, dropped, err := decodeBookings(cur)
		if err != nil {
			log.Printf("bookings: failed to parse %s, showing empty list: %v", key, err)
			out.Degraded = true
			return nil, false, nil
		}
		out.Items = items
		out.Dropped = dropped
		if dropped == 0 {
			return nil, false, nil
		}
		log.Printf("bookings: dropped %d malformed record(s) from %s", dropped, key)
		next, err := encodeBookings(items)
		return next, err == nil, err
	})
	if err != nil {
		return BookingList{}, err
	}
	return out, nil
}

// Get returns the booking with the given transaction id.
func (r *BookingRepo) Get(ctx context.Context, ns, txnID string) (model.BookingRecord, error) {
	list, err := r.List(ctx, ns)
	if err != nil {
		return model.BookingRecord{}, err
	}
	for _, b := range list.Items {
		if b.TransactionID() == txnID {
			return b, nil
		}
	}
	return model.BookingRecord{}, ErrNotFound
}

// mutate loads the list (an unreadable blob counts as empty), applies fn and
// writes the result.  fn returning write=false skips the write.
func (r *BookingRepo) mutate(ctx context.Context, ns string, fn func(items []model.BookingRecord) ([]model.BookingRecord, bool, error)) error {
	key := kvstore.Key(ns, kvstore.BookingsKey)
	return r.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		items := []model.BookingRecord{}
		if ok {
			decoded, _, err := decodeBookings(cur)
			if err != nil {
				log.Printf("bookings: overwriting unreadable %s: %v", key, err)
			} else {
				items = decoded
			}
		}
		next, write, err := fn(items)
		if err != nil || !write {
			return nil, false, err
		}
		b, err := encodeBookings(next)
		if err != nil {
			return nil, false, err
		}
		return b, true, nil
	})
}

func indexOf(items []model.BookingRecord, txnID string) int {
	for i, b := range items {
		if b.TransactionID() == txnID {
			return i
		}
	}
	return -1
}

// Append adds rec to the end of the list.  A record with the same
// transaction id already present yields ErrConflict.
func (r *BookingRepo) Append(ctx context.Context, ns string, rec model.BookingRecord) (model.BookingRecord, error) {
	rec, err := NormalizeBooking(rec)
	if err != nil {
		return rec, err
	}
	err = r.mutate(ctx, ns, func(items []model.BookingRecord) ([]model.BookingRecord, bool, error) {
		if indexOf(items, rec.TransactionID()) >= 0 {
			return nil, false, fmt.Errorf("%w: transaction %s already stored", ErrConflict, rec.TransactionID())
		}
		return append(items, rec), true, nil
	})
	return rec, err
}

// Reconfirm overwrites the stored record with the same transaction id in
// place, so repeating it never creates a duplicate.  It refuses to bring a
// booking back: a record no longer stored yields ErrNotFound and a cancelled
// one ErrConflict, since its seats were already released.
func (r *BookingRepo) Reconfirm(ctx context.Context, ns string, rec model.BookingRecord) error {
	rec, err := NormalizeBooking(rec)
	if err != nil {
		return err
	}
	return r.mutate(ctx, ns, func(items []model.BookingRecord) ([]model.BookingRecord, bool, error) {
		i := indexOf(items, rec.TransactionID())
		if i < 0 {
			return nil, false, fmt.Errorf("%w: transaction %s", ErrNotFound, rec.TransactionID())
		}
		if items[i].Status == model.StatusCancelled {
			return nil, false, fmt.Errorf("%w: booking %s was cancelled", ErrConflict, rec.TransactionID())
		}
		if rec.Status == model.StatusCancelled {
			return nil, false, ValidationError{Field: "status", Msg: "cannot reconfirm as cancelled"}
		}
		items[i] = rec
		return items, true, nil
	})
}

// Cancel flips the status of the booking to cancelled.  guard, when not
// nil, runs against the stored record and may veto the change.  Cancelling
// an already cancelled booking succeeds without writing (changed=false).
func (r *BookingRepo) Cancel(ctx context.Context, ns, txnID string, guard func(model.BookingRecord) error) (rec model.BookingRecord, changed bool, err error) {
	err = r.mutate(ctx, ns, func(items []model.BookingRecord) ([]model.BookingRecord, bool, error) {
		i := indexOf(items, txnID)
		if i < 0 {
			return nil, false, ErrNotFound
		}
		rec = items[i]
		if rec.Status == model.StatusCancelled {
			return nil, false, nil
		}
		if guard != nil {
			if err := guard(rec); err != nil {
				return nil, false, err
			}
		}
		rec.Status = model.StatusCancelled
		items[i] = rec
		changed = true
		return items, true, nil
	})
	return rec, changed, err
}

// Remove deletes the booking from the list and returns the removed record.
func (r *BookingRepo) Remove(ctx context.Context, ns, txnID string) (rec model.BookingRecord, err error) {
	err = r.mutate(ctx, ns, func(items []model.BookingRecord) ([]model.BookingRecord, bool, error) {
		i := indexOf(items, txnID)
		if i < 0 {
			return nil, false, ErrNotFound
		}
		rec = items[i]
		return append(items[:i], items[i+1:]...), true, nil
	})
	return rec, err
}
