package ticket

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// PDF renders the ticket as a one page A4 document with the QR code of p
// in the top right corner.
func PDF(rec model.BookingRecord, p Payload, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}
	png, err := QRCode(p, QRSize)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Movie Ticket "+rec.TransactionID(), false)
	pdf.AddPage()

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 150, 15, 45, 45, false, opts, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "MOVIE TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(130, 8, rec.Movie.Title)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	rows := []string{
		"Transaction : " + rec.TransactionID(),
		"Theater     : " + rec.Showtime.Theater.Name,
		"Address     : " + rec.Showtime.Theater.Address,
		"Date        : " + ShowDate(rec.Showtime),
		"Time        : " + rec.Showtime.Time,
		"Screen      : " + or(rec.Showtime.ScreenType, "Standard"),
		"Seats       : " + strings.Join(rec.SeatIDs(), ", "),
		"Total       : " + Money(rec.TotalPrice),
		"Paid        : " + rec.PaymentInfo.Timestamp.In(loc).Format("2006-01-02 15:04"),
	}
	for _, s := range rows {
		pdf.Cell(130, 7, s)
		pdf.Ln(7)
	}
	if rec.Status == model.StatusCancelled {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(200, 0, 0)
		pdf.Cell(0, 8, "CANCELLED")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(8)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "- "+strings.Join(Notes, "\n- "), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("ticket: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
