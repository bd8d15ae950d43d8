package repository

import (
	"context"
	"encoding/json"
	"log"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// FavoritesRepo stores the ordered list of favorite movies of a client.
type FavoritesRepo struct {
	store BlobStore
}

// NewFavoritesRepo returns a FavoritesRepo over the given store.
func NewFavoritesRepo(s BlobStore) *FavoritesRepo { return &FavoritesRepo{store: s} }

func decodeFavorites(key string, cur []byte, ok bool) []model.MovieSummary {
	out := []model.MovieSummary{}
	if !ok {
		return out
	}
	if err := json.Unmarshal(cur, &out); err != nil {
		log.Printf("favorites: failed to parse %s, treating as empty: %v", key, err)
		return []model.MovieSummary{}
	}
	return out
}

// List returns the favorites in the order they were added.
func (r *FavoritesRepo) List(ctx context.Context, ns string) ([]model.MovieSummary, error) {
	key := kvstore.Key(ns, kvstore.FavoritesKey)
	b, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeFavorites(key, b, ok), nil
}

// Contains reports whether the movie is a favorite.
func (r *FavoritesRepo) Contains(ctx context.Context, ns string, movieID int64) (bool, error) {
	items, err := r.List(ctx, ns)
	if err != nil {
		return false, err
	}
	for _, m := range items {
		if m.ID == movieID {
			return true, nil
		}
	}
	return false, nil
}

// Toggle adds the movie when absent and removes it when present.  added
// reports the resulting membership.
func (r *FavoritesRepo) Toggle(ctx context.Context, ns string, movie model.MovieSummary) (added bool, err error) {
	if movie.ID == 0 {
		return false, ValidationError{Field: "id", Msg: "is required"}
	}
	key := kvstore.Key(ns, kvstore.FavoritesKey)
	err = r.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		items := decodeFavorites(key, cur, ok)
		next := items[:0]
		for _, m := range items {
			if m.ID != movie.ID {
				next = append(next, m)
			}
		}
		if len(next) == len(items) {
			next = append(next, movie)
			added = true
		}
		b, err := json.Marshal(next)
		return b, err == nil, err
	})
	return added, err
}

// Remove drops the movie from the favorites.  Removing a movie that is not
// a favorite returns ErrNotFound.
func (r *FavoritesRepo) Remove(ctx context.Context, ns string, movieID int64) error {
	key := kvstore.Key(ns, kvstore.FavoritesKey)
	return r.store.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		items := decodeFavorites(key, cur, ok)
		next := make([]model.MovieSummary, 0, len(items))
		for _, m := range items {
			if m.ID != movieID {
				next = append(next, m)
			}
		}
		if len(next) == len(items) {
			return nil, false, ErrNotFound
		}
		b, err := json.Marshal(next)
		return b, err == nil, err
	})
}
