package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
)

// LedgerNamespace is the store namespace shared by every client for seat
// ownership.  Bookings are per client, seats are not.
const LedgerNamespace = "inventory"

// SeatLedger records which transaction owns each sold seat of a showtime.
// It is the only state shared between client namespaces and is what keeps
// two bookings from selling the same seat.  One blob per showtime maps seat
// id to transaction id.
type SeatLedger struct {
	store BlobStore
}

// NewSeatLedger returns a SeatLedger over the given store.
func NewSeatLedger(s BlobStore) *SeatLedger { return &SeatLedger{store: s} }

func ledgerKey(showtimeID string) string {
	return kvstore.Key(LedgerNamespace, "seats:"+showtimeID)
}

func decodeLedger(key string, cur []byte, ok bool) map[string]string {
	owners := map[string]string{}
	if !ok {
		return owners
	}
	if err := json.Unmarshal(cur, &owners); err != nil {
		log.Printf("ledger: discarding unreadable %s: %v", key, err)
		return map[string]string{}
	}
	return owners
}

// Taken returns seat id -> owning transaction id for the showtime.
func (l *SeatLedger) Taken(ctx context.Context, showtimeID string) (map[string]string, error) {
	key := ledgerKey(showtimeID)
	b, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeLedger(key, b, ok), nil
}

// Claim assigns seatIDs to txnID atomically.  If any seat is owned by a
// different transaction nothing is written and the error wraps ErrSeatTaken.
// Claiming seats the transaction already owns is a no-op.
func (l *SeatLedger) Claim(ctx context.Context, showtimeID, txnID string, seatIDs []string) error {
	if txnID == "" {
		return ValidationError{Field: "transactionId", Msg: "is required"}
	}
	key := ledgerKey(showtimeID)
	return l.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		owners := decodeLedger(key, cur, ok)
		var taken []string
		for _, id := range seatIDs {
			if owner, held := owners[id]; held && owner != txnID {
				taken = append(taken, id)
			}
		}
		if len(taken) > 0 {
			sort.Strings(taken)
			return nil, false, fmt.Errorf("%w: %s", ErrSeatTaken, strings.Join(taken, ", "))
		}
		for _, id := range seatIDs {
			owners[id] = txnID
		}
		b, err := json.Marshal(owners)
		return b, err == nil, err
	})
}

// Release frees every seat of the showtime owned by txnID and returns how
// many were freed.  Seats owned by other transactions are untouched.
func (l *SeatLedger) Release(ctx context.Context, showtimeID, txnID string) (int, error) {
	key := ledgerKey(showtimeID)
	freed := 0
	err := l.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		if !ok {
			return nil, false, nil
		}
		owners := decodeLedger(key, cur, ok)
		for id, owner := range owners {
			if owner == txnID {
				delete(owners, id)
				freed++
			}
		}
		if freed == 0 {
			return nil, false, nil
		}
		b, err := json.Marshal(owners)
		return b, err == nil, err
	})
	return freed, err
}
