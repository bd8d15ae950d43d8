package queue

import (
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Queue names.  Each event type has its own durable queue.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingEvent is published when a booking is confirmed or cancelled.  It
// carries enough information for downstream consumers to log, notify or
// run analytics without reading the blob store.
type BookingEvent struct {
	Type          string   `json:"type"` // confirmed | cancelled
	ClientID      string   `json:"client_id"`
	TransactionID string   `json:"transaction_id"`
	MovieID       int64    `json:"movie_id"`
	MovieTitle    string   `json:"movie_title"`
	ShowtimeID    string   `json:"showtime_id"`
	TheaterName   string   `json:"theater_name"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	SeatLabels    []string `json:"seats"`
	TotalPrice    float64  `json:"total_price"`
	OccurredAt    string   `json:"occurred_at"`
}

// NewBookingEvent builds the event of the given type for rec.
func NewBookingEvent(typ, clientID string, rec model.BookingRecord, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          typ,
		ClientID:      clientID,
		TransactionID: rec.TransactionID(),
		MovieID:       rec.Movie.ID,
		MovieTitle:    rec.Movie.Title,
		ShowtimeID:    rec.Showtime.ID,
		TheaterName:   rec.Showtime.Theater.Name,
		Date:          rec.Showtime.Date,
		Time:          rec.Showtime.Time,
		SeatLabels:    rec.SeatIDs(),
		TotalPrice:    rec.TotalPrice,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
