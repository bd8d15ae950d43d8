package repository

import (
	"context"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// ActivityRepo stores the last computed activity summary.
type ActivityRepo struct {
	store BlobStore
}

func NewActivityRepo(s BlobStore) *ActivityRepo { return &ActivityRepo{store: s} }

// Get returns the stored summary; ok is false when none is stored or it
// cannot be parsed.
func (r *ActivityRepo) Get(ctx context.Context, ns string) (model.ActivitySummary, bool, error) {
	var a model.ActivitySummary
	found, err := readJSON(ctx, r.store, kvstore.Key(ns, kvstore.ActivityKey), &a)
	if found && err != nil {
		return model.ActivitySummary{}, false, nil
	}
	return a, found, err
}

func (r *ActivityRepo) Put(ctx context.Context, ns string, a model.ActivitySummary) error {
	if a.UpcomingBookings == nil {
		a.UpcomingBookings = []model.UpcomingBooking{}
	}
	return writeJSON(ctx, r.store, kvstore.Key(ns, kvstore.ActivityKey), a)
}
