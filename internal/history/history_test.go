package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

var now = time.Date(2030, 6, 15, 18, 0, 0, 0, time.UTC)

func booking(txn, title, theater string, start time.Time, price float64, booked time.Time) model.BookingRecord {
	return model.BookingRecord{
		Movie: model.MovieSummary{ID: 1, Title: title},
		Showtime: model.Showtime{
			ID:      "1-1-" + start.Format("2006-01-02") + "-" + start.Format("15:04"),
			Theater: model.Theater{ID: 1, Name: theater},
			Date:    start.Format(model.ShowtimeDateLayout),
			Time:    start.Format(model.ShowtimeTimeLayout),
		},
		Seats:       []model.Seat{{ID: "A1", Row: "A", Number: 1, Price: price}},
		TotalPrice:  price,
		PaymentInfo: model.PaymentInfo{TransactionID: txn},
		BookingDate: booked,
	}
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		start time.Time
		want  DisplayStatus
	}{
		{now.Add(-3 * time.Hour), Completed},
		{now.Add(-time.Minute), Completed},
		{now.Add(90 * time.Minute), StartingSoon},
		{now.Add(2 * time.Hour), Upcoming},
		{now.Add(48 * time.Hour), Upcoming},
	}
	for _, tc := range cases {
		rec := booking("TXN1", "Dune", "Star Cinema", tc.start, 12, now)
		assert.Equal(t, tc.want, DeriveStatus(rec, now, time.UTC), tc.start)
	}

	rec := booking("TXN1", "Dune", "Star Cinema", now.Add(-3*time.Hour), 12, now)
	rec.Status = model.StatusCancelled
	assert.Equal(t, Cancelled, DeriveStatus(rec, now, time.UTC))

	rec = booking("TXN1", "Dune", "Star Cinema", now.Add(48*time.Hour), 12, now)
	rec.Showtime.Time = "7:30 PM"
	assert.Equal(t, Upcoming, DeriveStatus(rec, now, time.UTC))
}

func TestApply(t *testing.T) {
	t.Parallel()
	svc := NewService(nil, nil, nil, time.UTC).WithClock(func() time.Time { return now })
	recs := []model.BookingRecord{
		booking("TXN1", "Dune", "AMC Theater Downtown", now.Add(72*time.Hour), 30, now.Add(-48*time.Hour)),
		booking("TXN2", "Alien", "Star Cinema", now.Add(-72*time.Hour), 12, now.Add(-96*time.Hour)),
		booking("TXN3", "Barbie", "Cineplex Premium", now.Add(time.Hour), 45, now.Add(-time.Hour)),
	}
	var entries []Entry
	for _, r := range recs {
		entries = append(entries, svc.entry(r, now))
	}
	ids := func(es []Entry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.TransactionID())
		}
		return out
	}

	got, err := Apply(entries, Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN2", "TXN3", "TXN1"}, ids(got))

	got, err = Apply(entries, Query{SortBy: "price"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN3", "TXN1", "TXN2"}, ids(got))

	got, err = Apply(entries, Query{SortBy: "title", Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN1", "TXN3", "TXN2"}, ids(got))

	got, err = Apply(entries, Query{SortBy: "booked"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN3", "TXN1", "TXN2"}, ids(got))

	got, err = Apply(entries, Query{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN2"}, ids(got))

	got, err = Apply(entries, Query{Status: "starting_soon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN3"}, ids(got))

	got, err = Apply(entries, Query{Search: "star"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN2"}, ids(got))

	got, err = Apply(entries, Query{Search: "txn1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN1"}, ids(got))

	_, err = Apply(entries, Query{SortBy: "rating"})
	assert.True(t, repository.IsValidation(err))
	_, err = Apply(entries, Query{Status: "refunded"})
	assert.True(t, repository.IsValidation(err))
}

type releaseRecorder struct {
	mu       sync.Mutex
	released []string
}

func (r *releaseRecorder) Release(_ context.Context, showtimeID, txnID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, txnID)
	return 1, nil
}

type cancelRecorder struct{ got []string }

func (c *cancelRecorder) BookingCancelled(_ context.Context, _ string, rec model.BookingRecord) error {
	c.got = append(c.got, rec.TransactionID())
	return nil
}

func newService(t *testing.T) (*Service, *repository.BookingRepo, *releaseRecorder, *cancelRecorder) {
	t.Helper()
	store := kvstore.NewActor(kvstore.NewMemoryStore(), 0)
	t.Cleanup(store.Close)
	repo := repository.NewBookingRepo(store)
	rel := &releaseRecorder{}
	note := &cancelRecorder{}
	svc := NewService(repo, rel, note, time.UTC).WithClock(func() time.Time { return now })
	return svc, repo, rel, note
}

func TestPastBookingIsCompletedAndCannotBeCancelled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, rel, _ := newService(t)
	_, err := repo.Append(ctx, "c1", booking("TXN9", "Dune", "Star Cinema", now.Add(-3*time.Hour), 12, now.Add(-24*time.Hour)))
	require.NoError(t, err)

	res, err := svc.List(ctx, "c1", Query{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, Completed, res.Items[0].DisplayStatus)
	assert.False(t, res.Items[0].CanCancel)

	_, err = svc.Cancel(ctx, "c1", "TXN9")
	assert.ErrorIs(t, err, repository.ErrConflict)
	got, err := repo.Get(ctx, "c1", "TXN9")
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)
	assert.Empty(t, rel.released)
}

func TestCancelThenRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, rel, note := newService(t)
	_, err := repo.Append(ctx, "c1", booking("TXN123", "Dune", "Star Cinema", now.Add(24*time.Hour), 24, now))
	require.NoError(t, err)

	e, err := svc.Cancel(ctx, "c1", "TXN123")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, e.Status)
	assert.Equal(t, Cancelled, e.DisplayStatus)
	assert.False(t, e.CanCancel)

	stored, err := repo.Get(ctx, "c1", "TXN123")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, stored.Status)

	_, err = svc.Cancel(ctx, "c1", "TXN123")
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN123"}, rel.released)
	assert.Equal(t, []string{"TXN123"}, note.got)

	_, err = svc.Remove(ctx, "c1", "TXN123")
	require.NoError(t, err)
	_, err = repo.Get(ctx, "c1", "TXN123")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Len(t, rel.released, 1, "seats of a cancelled booking are already free")

	_, err = svc.Cancel(ctx, "c1", "TXN123")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRemoveReleasesSeats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, rel, _ := newService(t)
	_, err := repo.Append(ctx, "c1", booking("TXN5", "Dune", "Star Cinema", now.Add(24*time.Hour), 24, now))
	require.NoError(t, err)

	_, err = svc.Remove(ctx, "c1", "TXN5")
	require.NoError(t, err)
	assert.Equal(t, []string{"TXN5"}, rel.released)
}

func TestListSurfacesDegraded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kvstore.NewActor(kvstore.NewMemoryStore(), 0)
	defer store.Close()
	require.NoError(t, store.Set(ctx, kvstore.Key("c1", kvstore.BookingsKey), []byte("not json")))

	svc := NewService(repository.NewBookingRepo(store), nil, nil, time.UTC)
	res, err := svc.List(ctx, "c1", Query{})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Empty(t, res.Items)
}
