// Package ticket renders a confirmed booking for export: the plain text
// ticket, a PDF with an embedded QR code, the share message and a signed
// token that lets a venue verify the ticket.
package ticket

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName returns "booking-<txn>.<ext>" with anything unsafe in the id
// replaced.
func FileName(rec model.BookingRecord, ext string) string {
	id := unsafeName.ReplaceAllString(rec.TransactionID(), "_")
	return "booking-" + id + "." + strings.TrimPrefix(ext, ".")
}

// Money formats an amount in dollars, without cents when it is whole.
func Money(v float64) string {
	if v == float64(int64(v)) {
		return "$" + strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("$%.2f", v)
}

// ShowDate formats the showtime date as M/D/YYYY, or returns it unchanged
// when it does not parse.
func ShowDate(st model.Showtime) string {
	d, err := time.Parse(model.ShowtimeDateLayout, st.Date)
	if err != nil {
		return st.Date
	}
	return d.Format("1/2/2006")
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// Text renders the plain text ticket.  loc is used for the payment
// timestamp.
func Text(rec model.BookingRecord, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	line := func(format string, args ...any) { fmt.Fprintf(&b, format+"\n", args...) }

	line("BOOKING CONFIRMATION")
	line("=====================")
	line("")
	line("Transaction ID: %s", rec.TransactionID())
	line("Date: %s", rec.PaymentInfo.Timestamp.In(loc).Format("1/2/2006, 3:04:05 PM"))
	line("")
	line("MOVIE DETAILS")
	line("-------------")
	line("Movie: %s", rec.Movie.Title)
	line("Theater: %s", rec.Showtime.Theater.Name)
	line("Address: %s", rec.Showtime.Theater.Address)
	line("Date: %s", ShowDate(rec.Showtime))
	line("Time: %s", rec.Showtime.Time)
	line("Screen: %s", or(rec.Showtime.ScreenType, "Standard"))
	line("")
	line("SEATS")
	line("-----")
	for _, s := range rec.Seats {
		line("%s - %s", s.ID, Money(s.Price))
	}
	line("")
	line("PAYMENT")
	line("-------")
	line("Total Amount: %s", Money(rec.TotalPrice))
	line("Payment Method: Credit Card ending in %s", rec.PaymentInfo.CardLast4)
	line("")
	line("CUSTOMER INFORMATION")
	line("--------------------")
	line("Email: %s", rec.PaymentInfo.Email)
	line("Phone: %s", rec.PaymentInfo.Phone)
	line("")
	line("IMPORTANT NOTES")
	line("---------------")
	for _, n := range Notes {
		line("- %s", n)
	}
	line("")
	b.WriteString("Thank you for choosing our cinema!")
	return b.String()
}

// Notes are printed on every ticket.
var Notes = []string{
	"Please arrive at least 15 minutes before showtime",
	"Bring this confirmation email and a valid ID",
	"No refunds or exchanges after purchase",
	"Outside food and drinks are not allowed",
}

// Share is the message offered to share a booking.
type Share struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func ShareText(rec model.BookingRecord) Share {
	return Share{
		Title: "Booking Confirmation - " + rec.Movie.Title,
		Text:  fmt.Sprintf("I've booked tickets for %s on %s at %s!", rec.Movie.Title, ShowDate(rec.Showtime), rec.Showtime.Time),
	}
}
