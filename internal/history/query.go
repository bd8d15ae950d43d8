package history

import (
	"sort"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// Entry is a stored booking with its derived display fields.
type Entry struct {
	model.BookingRecord
	DisplayStatus DisplayStatus `json:"displayStatus"`
	CanCancel     bool          `json:"canCancel"`
}

// Query selects and orders history entries.  Empty fields mean no search,
// every status and the default sort (date, ascending).
type Query struct {
	Search string `query:"q"`
	Status string `query:"status"` // all | upcoming | starting_soon | completed | cancelled
	SortBy string `query:"sort"`   // date | title | price | booked
	Order  string `query:"order"`  // asc | desc; default depends on SortBy
}

var defaultDesc = map[string]bool{"date": false, "title": false, "price": true, "booked": true}

func (q Query) normalize() (Query, error) {
	q.Search = strings.ToLower(strings.TrimSpace(q.Search))
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	switch DisplayStatus(q.Status) {
	case "", "all":
		q.Status = "all"
	case Upcoming, StartingSoon, Completed, Cancelled:
	default:
		return q, repository.ValidationError{Field: "status", Msg: "unknown status filter " + q.Status}
	}
	q.SortBy = strings.ToLower(strings.TrimSpace(q.SortBy))
	if q.SortBy == "" {
		q.SortBy = "date"
	}
	if _, ok := defaultDesc[q.SortBy]; !ok {
		return q, repository.ValidationError{Field: "sort", Msg: "must be date, title, price or booked"}
	}
	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	switch q.Order {
	case "":
		q.Order = "asc"
		if defaultDesc[q.SortBy] {
			q.Order = "desc"
		}
	case "asc", "desc":
	default:
		return q, repository.ValidationError{Field: "order", Msg: "must be asc or desc"}
	}
	return q, nil
}

func (e Entry) matches(search string) bool {
	if search == "" {
		return true
	}
	for _, f := range []string{e.Movie.Title, e.Showtime.Theater.Name, e.TransactionID()} {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// Apply filters and sorts entries.  The input is not modified.
func Apply(entries []Entry, q Query) ([]Entry, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if q.Status != "all" && string(e.DisplayStatus) != q.Status {
			continue
		}
		if !e.matches(q.Search) {
			continue
		}
		out = append(out, e)
	}

	var less func(a, b Entry) bool
	switch q.SortBy {
	case "title":
		less = func(a, b Entry) bool { return strings.ToLower(a.Movie.Title) < strings.ToLower(b.Movie.Title) }
	case "price":
		less = func(a, b Entry) bool { return a.TotalPrice < b.TotalPrice }
	case "booked":
		less = func(a, b Entry) bool { return a.BookingDate.Before(b.BookingDate) }
	default:
		// YYYY-MM-DD and HH:MM order lexically
		less = func(a, b Entry) bool {
			if a.Showtime.Date != b.Showtime.Date {
				return a.Showtime.Date < b.Showtime.Date
			}
			return a.Showtime.Time < b.Showtime.Time
		}
	}
	if q.Order == "desc" {
		asc := less
		less = func(a, b Entry) bool { return asc(b, a) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}
