package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func TestHandleMessageAppendsLines(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "logs", "booking.log")
	rec := model.BookingRecord{
		Movie:       model.MovieSummary{ID: 1, Title: "Dune"},
		Showtime:    model.Showtime{ID: "1-1-2030-01-02-19:00", Theater: model.Theater{Name: "Star Cinema"}, Date: "2030-01-02", Time: "19:00"},
		Seats:       []model.Seat{{ID: "A1"}, {ID: "A2"}},
		TotalPrice:  30,
		PaymentInfo: model.PaymentInfo{TransactionID: "TXN1"},
	}
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, typ := range []string{"confirmed", "cancelled"} {
		body, err := json.Marshal(NewBookingEvent(typ, "c1", rec, at))
		require.NoError(t, err)
		require.NoError(t, HandleMessage(body, logPath))
	}

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2030-01-01T12:00:00Z] Booking confirmed | txn=TXN1 | client=c1 | showtime=1-1-2030-01-02-19:00 | theater="Star Cinema" | movie="Dune" | starts=2030-01-02 19:00 | total=30.00 | seats=[A1,A2]`, lines[0])
	assert.Contains(t, lines[1], "Booking cancelled | txn=TXN1")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "booking.log")
	assert.Error(t, HandleMessage([]byte("{"), logPath))
	assert.Error(t, HandleMessage([]byte(`{"type":"confirmed"}`), logPath))
	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}
