package moviedb

import (
	"sort"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ApplyFilters drops movies rated below prefs.MinRating or in another
// language than prefs.Language ("all" keeps every language), then sorts by
// prefs.SortOption, best first.  The input is not modified.
func ApplyFilters(items []model.MovieListItem, prefs model.FilterPreferences) []model.MovieListItem {
	out := make([]model.MovieListItem, 0, len(items))
	for _, m := range items {
		if m.VoteAverage < prefs.MinRating {
			continue
		}
		if prefs.Language != "" && prefs.Language != "all" && m.OriginalLanguage != prefs.Language {
			continue
		}
		out = append(out, m)
	}
	var less func(a, b model.MovieListItem) bool
	switch prefs.SortOption {
	case "rating":
		less = func(a, b model.MovieListItem) bool { return a.VoteAverage > b.VoteAverage }
	case "release":
		less = func(a, b model.MovieListItem) bool { return releaseOf(a).After(releaseOf(b)) }
	default:
		less = func(a, b model.MovieListItem) bool { return a.Popularity > b.Popularity }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// releaseOf parses the release date; unknown dates sort last.
func releaseOf(m model.MovieListItem) time.Time {
	t, err := time.Parse("2006-01-02", m.ReleaseDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Languages lists "all" followed by the distinct original languages of
// items in order of first appearance, at most eight entries in total.
func Languages(items []model.MovieListItem) []string {
	out := []string{"all"}
	seen := map[string]bool{}
	for _, m := range items {
		if len(out) == 8 {
			break
		}
		if m.OriginalLanguage == "" || seen[m.OriginalLanguage] {
			continue
		}
		seen[m.OriginalLanguage] = true
		out = append(out, m.OriginalLanguage)
	}
	return out
}
