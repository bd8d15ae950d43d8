package model

import "time"

// BookingStatus is the stored status of a booking.  Only confirmed and
// cancelled are ever persisted; "completed" and "starting soon" are display
// labels derived from the wall clock (see package history).
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// ShowtimeDateLayout and ShowtimeTimeLayout describe how Showtime.Date and
// Showtime.Time are encoded.
const (
	ShowtimeDateLayout = "2006-01-02"
	ShowtimeTimeLayout = "15:04"
)

// Theater is the venue a showtime plays in.
type Theater struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Showtime is a specific theater + date + time + screen type offering of a
// movie with a per-seat price and a remaining seat count.
//
// Fields:
//  ID             – "<movieId>-<theaterId>-<date>-<time>".
//  Date           – calendar day in ShowtimeDateLayout.
//  Time           – local start time in ShowtimeTimeLayout.
//  ScreenType     – Standard or IMAX.
//  Price          – advertised price per ticket.
//  AvailableSeats – seats left; zero means the showtime cannot be selected.
type Showtime struct {
	ID             string  `json:"id"`
	Theater        Theater `json:"theater"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	ScreenType     string  `json:"screenType"`
	Price          float64 `json:"price"`
	AvailableSeats int     `json:"availableSeats"`
}

// StartsAt combines Date and Time in the given location.  ok is false when
// either part does not parse.
func (s Showtime) StartsAt(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(ShowtimeDateLayout+" "+ShowtimeTimeLayout, s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Seat is one seat of a showtime's grid.  ID is the row letter followed by
// the 1-based seat number, e.g. "A1".
type Seat struct {
	ID         string  `json:"id"`
	Row        string  `json:"row"`
	Number     int     `json:"number"`
	IsOccupied bool    `json:"isOccupied"`
	Price      float64 `json:"price"`
}

// MovieSummary is the denormalized copy of movie fields kept inside a
// booking and in the favorites list.
type MovieSummary struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
}

// PaymentInfo is the payment metadata stored with a booking.  Only the last
// four digits of the card are kept; the CVV is never stored.
type PaymentInfo struct {
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
	CardLast4     string    `json:"cardLast4"`
	CardName      string    `json:"cardName,omitempty"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
}

// BookingRecord is the persisted result of completing the booking wizard.
// It is identified by PaymentInfo.TransactionID.
type BookingRecord struct {
	Movie       MovieSummary  `json:"movie"`
	Showtime    Showtime      `json:"showtime"`
	Seats       []Seat        `json:"seats"`
	TotalPrice  float64       `json:"totalPrice"`
	PaymentInfo PaymentInfo   `json:"paymentInfo"`
	Status      BookingStatus `json:"status"`
	BookingDate time.Time     `json:"bookingDate"`
}

// TransactionID is a shortcut for PaymentInfo.TransactionID.
func (b BookingRecord) TransactionID() string { return b.PaymentInfo.TransactionID }

// SeatIDs returns the identifiers of the booked seats in booking order.
func (b BookingRecord) SeatIDs() []string {
	ids := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		ids = append(ids, s.ID)
	}
	return ids
}
