package repository

import (
	"context"
	"log"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// FiltersRepo stores the movie list preferences.
type FiltersRepo struct {
	store BlobStore
}

// NewFiltersRepo returns a FiltersRepo over the given store.
func NewFiltersRepo(s BlobStore) *FiltersRepo { return &FiltersRepo{store: s} }

// ValidateFilters checks p and fills empty fields with defaults.
func ValidateFilters(p model.FilterPreferences) (model.FilterPreferences, error) {
	def := model.DefaultFilterPreferences()
	p.ViewMode = strings.ToLower(strings.TrimSpace(p.ViewMode))
	switch p.ViewMode {
	case "":
		p.ViewMode = def.ViewMode
	case "grid", "list":
	default:
		return p, ValidationError{Field: "viewMode", Msg: "must be grid or list"}
	}
	p.SortOption = strings.ToLower(strings.TrimSpace(p.SortOption))
	switch p.SortOption {
	case "":
		p.SortOption = def.SortOption
	case "popularity", "rating", "release":
	default:
		return p, ValidationError{Field: "sortOption", Msg: "must be popularity, rating or release"}
	}
	if p.MinRating < 0 || p.MinRating > 10 {
		return p, ValidationError{Field: "minRating", Msg: "must be between 0 and 10"}
	}
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	if p.Language == "" {
		p.Language = def.Language
	}
	return p, nil
}

// Get returns the stored preferences, or the defaults when none are stored
// or the stored value is unusable.
func (r *FiltersRepo) Get(ctx context.Context, ns string) (model.FilterPreferences, error) {
	key := kvstore.Key(ns, kvstore.FiltersKey)
	var p model.FilterPreferences
	found, err := readJSON(ctx, r.store, key, &p)
	if !found {
		if err != nil {
			return model.FilterPreferences{}, err
		}
		return model.DefaultFilterPreferences(), nil
	}
	if err == nil {
		p, err = ValidateFilters(p)
	}
	if err != nil {
		log.Printf("filters: ignoring stored %s: %v", key, err)
		return model.DefaultFilterPreferences(), nil
	}
	return p, nil
}

// Put validates and stores p, returning the stored form.
func (r *FiltersRepo) Put(ctx context.Context, ns string, p model.FilterPreferences) (model.FilterPreferences, error) {
	p, err := ValidateFilters(p)
	if err != nil {
		return p, err
	}
	return p, writeJSON(ctx, r.store, kvstore.Key(ns, kvstore.FiltersKey), p)
}
