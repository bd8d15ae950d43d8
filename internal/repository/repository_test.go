package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

func newStore(t *testing.T) *kvstore.Actor {
	t.Helper()
	a := kvstore.NewActor(kvstore.NewMemoryStore(), 0)
	t.Cleanup(a.Close)
	return a
}

func sampleBooking(txn string) model.BookingRecord {
	return model.BookingRecord{
		Movie: model.MovieSummary{ID: 27205, Title: "Inception"},
		Showtime: model.Showtime{
			ID:      "27205-1-2030-01-02-19:00",
			Theater: model.Theater{ID: 1, Name: "AMC Theater Downtown", Address: "123 Main St, City"},
			Date:    "2030-01-02",
			Time:    "19:00",
			Price:   14,
		},
		Seats: []model.Seat{
			{ID: "A1", Row: "A", Number: 1, Price: 15},
			{ID: "A2", Row: "A", Number: 2, Price: 15},
		},
		TotalPrice:  30,
		PaymentInfo: model.PaymentInfo{TransactionID: txn, CardLast4: "1111", Email: "jane@example.com", Phone: "5551234567"},
		BookingDate: time.Date(2029, 12, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNormalizeBooking(t *testing.T) {
	t.Parallel()

	rec, err := NormalizeBooking(sampleBooking("TXN1"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, rec.Status)

	b := sampleBooking("TXN1")
	b.Status = "Canceled"
	rec, err = NormalizeBooking(b)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, rec.Status)

	cases := map[string]func(*model.BookingRecord){
		"paymentInfo.transactionId": func(r *model.BookingRecord) { r.PaymentInfo.TransactionID = " " },
		"movie.title":               func(r *model.BookingRecord) { r.Movie.Title = "" },
		"showtime.date":             func(r *model.BookingRecord) { r.Showtime.Date = "" },
		"status":                    func(r *model.BookingRecord) { r.Status = "refunded" },
	}
	for field, mutate := range cases {
		b := sampleBooking("TXN1")
		mutate(&b)
		_, err := NormalizeBooking(b)
		var verr ValidationError
		require.True(t, errors.As(err, &verr), field)
		assert.Equal(t, field, verr.Field)
	}
}

func TestBookingRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBookingRepo(newStore(t))

	_, err := repo.Append(ctx, "c1", sampleBooking("TXN1"))
	require.NoError(t, err)

	got, err := repo.Get(ctx, "c1", "TXN1")
	require.NoError(t, err)
	assert.Equal(t, "TXN1", got.TransactionID())
	assert.Equal(t, []string{"A1", "A2"}, got.SeatIDs())
	assert.Equal(t, 30.0, got.TotalPrice)

	_, err = repo.Get(ctx, "c2", "TXN1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingAppendRejectsDuplicate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBookingRepo(newStore(t))

	_, err := repo.Append(ctx, "c1", sampleBooking("TXN1"))
	require.NoError(t, err)
	_, err = repo.Append(ctx, "c1", sampleBooking("TXN1"))
	assert.ErrorIs(t, err, ErrConflict)

	list, err := repo.List(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestBookingReconfirmNeverDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBookingRepo(newStore(t))

	err := repo.Reconfirm(ctx, "c1", sampleBooking("TXN1"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Append(ctx, "c1", sampleBooking("TXN1"))
	require.NoError(t, err)
	b := sampleBooking("TXN1")
	b.TotalPrice = 45
	require.NoError(t, repo.Reconfirm(ctx, "c1", b))
	require.NoError(t, repo.Reconfirm(ctx, "c1", b))

	list, err := repo.List(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 45.0, list.Items[0].TotalPrice)
}

func TestBookingReconfirmKeepsCancellation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBookingRepo(newStore(t))

	_, err := repo.Append(ctx, "c1", sampleBooking("TXN1"))
	require.NoError(t, err)
	_, _, err = repo.Cancel(ctx, "c1", "TXN1", nil)
	require.NoError(t, err)

	err = repo.Reconfirm(ctx, "c1", sampleBooking("TXN1"))
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repo.Get(ctx, "c1", "TXN1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
}

func TestBookingListDropsMalformedAndWritesBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	repo := NewBookingRepo(store)

	good, err := json.Marshal(sampleBooking("TXN1"))
	require.NoError(t, err)
	blob := `[` + string(good) + `,{"movie":{"title":"No id"}},"garbage",{"paymentInfo":{"transactionId":"TXN2"},"movie":{"title":"X"}}]`
	key := kvstore.Key("c1", kvstore.BookingsKey)
	require.NoError(t, store.Set(ctx, key, []byte(blob)))

	list, err := repo.List(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, list.Degraded)
	assert.Equal(t, 3, list.Dropped)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "TXN1", list.Items[0].TransactionID())

	raw, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	var stored []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 1)
}

func TestBookingListDegradesOnCorruptBlob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	repo := NewBookingRepo(store)
	key := kvstore.Key("c1", kvstore.BookingsKey)
	require.NoError(t, store.Set(ctx, key, []byte(`{not json`)))

	list, err := repo.List(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, list.Degraded)
	assert.Empty(t, list.Items)

	raw, _, _ := store.Get(ctx, key)
	assert.Equal(t, `{not json`, string(raw), "read path must not overwrite an unreadable blob")
}

func TestBookingCancelAndRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBookingRepo(newStore(t))
	_, err := repo.Append(ctx, "c1", sampleBooking("TXN123"))
	require.NoError(t, err)

	rec, changed, err := repo.Cancel(ctx, "c1", "TXN123", nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCancelled, rec.Status)

	rec, changed, err = repo.Cancel(ctx, "c1", "TXN123", func(model.BookingRecord) error {
		t.Error("guard must not run for an already cancelled booking")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCancelled, rec.Status)

	_, err = repo.Remove(ctx, "c1", "TXN123")
	require.NoError(t, err)
	_, err = repo.Get(ctx, "c1", "TXN123")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Remove(ctx, "c1", "TXN123")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = repo.Cancel(ctx, "c1", "TXN123", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingCancelGuardVetoes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewBookingRepo(newStore(t))
	_, err := repo.Append(ctx, "c1", sampleBooking("TXN1"))
	require.NoError(t, err)

	_, changed, err := repo.Cancel(ctx, "c1", "TXN1", func(model.BookingRecord) error { return ErrConflict })
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, changed)

	got, err := repo.Get(ctx, "c1", "TXN1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
}

func TestSeatLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ledger := NewSeatLedger(newStore(t))
	const show = "27205-1-2030-01-02-19:00"

	require.NoError(t, ledger.Claim(ctx, show, "TXN1", []string{"A1", "A2"}))
	require.NoError(t, ledger.Claim(ctx, show, "TXN1", []string{"A1"}))

	err := ledger.Claim(ctx, show, "TXN2", []string{"A3", "A2"})
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.ErrorIs(t, err, ErrConflict)

	taken, err := ledger.Taken(ctx, show)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A1": "TXN1", "A2": "TXN1"}, taken)

	freed, err := ledger.Release(ctx, show, "TXN2")
	require.NoError(t, err)
	assert.Zero(t, freed)

	freed, err = ledger.Release(ctx, show, "TXN1")
	require.NoError(t, err)
	assert.Equal(t, 2, freed)
	require.NoError(t, ledger.Claim(ctx, show, "TXN2", []string{"A2"}))

	other, err := ledger.Taken(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestFavorites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewFavoritesRepo(newStore(t))
	m := model.MovieSummary{ID: 603, Title: "The Matrix"}

	added, err := repo.Toggle(ctx, "c1", m)
	require.NoError(t, err)
	assert.True(t, added)
	ok, err := repo.Contains(ctx, "c1", 603)
	require.NoError(t, err)
	assert.True(t, ok)

	added, err = repo.Toggle(ctx, "c1", m)
	require.NoError(t, err)
	assert.False(t, added)
	items, err := repo.List(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = repo.Toggle(ctx, "c1", m)
	require.NoError(t, err)
	require.NoError(t, repo.Remove(ctx, "c1", 603))
	assert.ErrorIs(t, repo.Remove(ctx, "c1", 603), ErrNotFound)

	_, err = repo.Toggle(ctx, "c1", model.MovieSummary{Title: "no id"})
	assert.True(t, IsValidation(err))
}

func TestProfileDefaultsPersistJoinDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewProfileRepo(newStore(t))
	repo.now = func() time.Time { return time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC) }

	p, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "March 4, 2026", p.JoinDate)

	repo.now = func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) }
	p, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "March 4, 2026", p.JoinDate)

	_, ok, err := repo.Credentials(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, repo.PutCredentials(ctx, "c1", model.Credentials{PasswordHash: "h"}))
	c, ok, err := repo.Credentials(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "h", c.PasswordHash)
}

func TestFilters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)
	repo := NewFiltersRepo(store)

	p, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultFilterPreferences(), p)

	_, err = repo.Put(ctx, "c1", model.FilterPreferences{ViewMode: "table"})
	assert.True(t, IsValidation(err))
	_, err = repo.Put(ctx, "c1", model.FilterPreferences{MinRating: 11})
	assert.True(t, IsValidation(err))

	saved, err := repo.Put(ctx, "c1", model.FilterPreferences{ViewMode: "List", SortOption: "rating", MinRating: 7})
	require.NoError(t, err)
	assert.Equal(t, model.FilterPreferences{ViewMode: "list", SortOption: "rating", MinRating: 7, Language: "all"}, saved)
	p, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, saved, p)

	require.NoError(t, store.Set(ctx, kvstore.Key("c1", kvstore.FiltersKey), []byte(`{"viewMode":"table"}`)))
	p, err = repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultFilterPreferences(), p)
}

func TestActivity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := NewActivityRepo(newStore(t))

	_, ok, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Put(ctx, "c1", model.ActivitySummary{Bookings: 2}))
	a, ok, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, a.Bookings)
	assert.NotNil(t, a.UpcomingBookings)
}
