package ticket

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Payload is the JSON encoded in the ticket QR code.
type Payload struct {
	TransactionID string   `json:"transactionId"`
	Movie         string   `json:"movie"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Seats         []string `json:"seats"`
	Token         string   `json:"token,omitempty"`
}

// NewPayload builds the QR payload of rec.  token may be empty.
func NewPayload(rec model.BookingRecord, token string) Payload {
	return Payload{
		TransactionID: rec.TransactionID(),
		Movie:         rec.Movie.Title,
		Date:          rec.Showtime.Date,
		Time:          rec.Showtime.Time,
		Seats:         rec.SeatIDs(),
		Token:         token,
	}
}

// QRSize is the edge length in pixels of generated QR images.
const QRSize = 256

// QRCode encodes p as a PNG QR code of the given size.
func QRCode(p Payload, size int) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(string(data), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("ticket: encode qr: %w", err)
	}
	return png, nil
}
