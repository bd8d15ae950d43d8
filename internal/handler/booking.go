package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/history"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/ticket"
)

// BookingHandler serves the booking history and the ticket exports of
// stored bookings.
type BookingHandler struct {
	History  *history.Service
	Signer   *ticket.Signer // nil disables ticket tokens
	Location *time.Location
}

// List returns the client's bookings.  Query parameters: q, status, sort,
// order.
func (h *BookingHandler) List(c echo.Context) error {
	var q history.Query
	if err := c.Bind(&q); err != nil {
		return badRequest(c, "invalid query")
	}
	res, err := h.History.List(c.Request().Context(), middleware.Client(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Get returns one booking with its display status.
func (h *BookingHandler) Get(c echo.Context) error {
	e, err := h.History.Get(c.Request().Context(), middleware.Client(c), c.Param("txn"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Cancel marks the booking cancelled and frees its seats.  Bookings whose
// showtime has passed answer 409.
func (h *BookingHandler) Cancel(c echo.Context) error {
	e, err := h.History.Cancel(c.Request().Context(), middleware.Client(c), c.Param("txn"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// Remove deletes the booking from the history.
func (h *BookingHandler) Remove(c echo.Context) error {
	if _, err := h.History.Remove(c.Request().Context(), middleware.Client(c), c.Param("txn")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) load(c echo.Context) (model.BookingRecord, error) {
	e, err := h.History.Get(c.Request().Context(), middleware.Client(c), c.Param("txn"))
	return e.BookingRecord, err
}

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
}

// TicketText downloads the plain text confirmation.
func (h *BookingHandler) TicketText(c echo.Context) error {
	rec, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	attachment(c, ticket.FileName(rec, "txt"))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(ticket.Text(rec, h.Location)))
}

// TicketPDF downloads the printable ticket with its QR code.
func (h *BookingHandler) TicketPDF(c echo.Context) error {
	rec, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	token, err := h.issue(c, rec)
	if err != nil {
		return writeError(c, err)
	}
	pdf, err := ticket.PDF(rec, ticket.NewPayload(rec, token), h.Location)
	if err != nil {
		return writeError(c, err)
	}
	attachment(c, ticket.FileName(rec, "pdf"))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// TicketQR returns the QR code image of the ticket.
func (h *BookingHandler) TicketQR(c echo.Context) error {
	rec, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	token, err := h.issue(c, rec)
	if err != nil {
		return writeError(c, err)
	}
	png, err := ticket.QRCode(ticket.NewPayload(rec, token), ticket.QRSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Share returns the title and text used when sharing the booking.
func (h *BookingHandler) Share(c echo.Context) error {
	rec, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ticket.ShareText(rec))
}

// Token issues a signed ticket token for the booking.
func (h *BookingHandler) Token(c echo.Context) error {
	if h.Signer == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket tokens are disabled"})
	}
	rec, err := h.load(c)
	if err != nil {
		return writeError(c, err)
	}
	if rec.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
	}
	token, err := h.issue(c, rec)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// issue signs a token for confirmed bookings.  Cancelled bookings and a nil
// Signer yield an empty token.
func (h *BookingHandler) issue(c echo.Context, rec model.BookingRecord) (string, error) {
	if h.Signer == nil || rec.Status == model.StatusCancelled {
		return "", nil
	}
	return h.Signer.Issue(middleware.Client(c), rec, h.Location)
}

// Verify returns the claims of the ticket token checked by
// middleware.TicketToken.  The booking must still be stored and not
// cancelled: a removed booking answers 401, a cancelled one 409.
func (h *BookingHandler) Verify(c echo.Context) error {
	claims, ok := middleware.TicketClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing ticket token"})
	}
	entry, err := h.History.Get(c.Request().Context(), claims.ClientID, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"valid": false, "error": "booking no longer exists"})
	}
	if err != nil {
		return writeError(c, err)
	}
	if entry.Status == model.StatusCancelled {
		return c.JSON(http.StatusConflict, echo.Map{"valid": false, "error": "booking was cancelled"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valid":         true,
		"transactionId": claims.Subject,
		"showtimeId":    claims.ShowtimeID,
		"seats":         claims.Seats,
		"expiresAt":     claims.ExpiresAt.Time,
	})
}
