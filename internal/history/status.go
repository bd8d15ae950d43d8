// Package history serves the booking history: display status derived from
// the wall clock, search, filtering and sorting, and the cancel and remove
// operations.
package history

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// DisplayStatus is the label shown for a booking.  Only cancelled is ever
// stored; the others come from comparing the showtime with the clock.
type DisplayStatus string

const (
	Upcoming     DisplayStatus = "upcoming"
	StartingSoon DisplayStatus = "starting_soon"
	Completed    DisplayStatus = "completed"
	Cancelled    DisplayStatus = "cancelled"
)

// StartingSoonWindow is how close to the start a booking counts as
// starting soon.
const StartingSoonWindow = 2 * time.Hour

// startOf returns when the showtime begins.  A missing or malformed time of
// day falls back to midnight of the showtime date.
func startOf(st model.Showtime, loc *time.Location) (time.Time, bool) {
	if t, ok := st.StartsAt(loc); ok {
		return t, true
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(model.ShowtimeDateLayout, st.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DeriveStatus labels rec as of now.  Times are interpreted in loc.
func DeriveStatus(rec model.BookingRecord, now time.Time, loc *time.Location) DisplayStatus {
	if rec.Status == model.StatusCancelled {
		return Cancelled
	}
	start, ok := startOf(rec.Showtime, loc)
	if !ok {
		return Upcoming
	}
	delta := start.Sub(now)
	switch {
	case delta < 0:
		return Completed
	case delta < StartingSoonWindow:
		return StartingSoon
	default:
		return Upcoming
	}
}

// CanCancel reports whether rec may still be cancelled: it is neither
// cancelled nor in the past.
func CanCancel(rec model.BookingRecord, now time.Time, loc *time.Location) bool {
	s := DeriveStatus(rec, now, loc)
	return s != Cancelled && s != Completed
}
