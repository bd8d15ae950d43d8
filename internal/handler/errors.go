package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/moviedb"
	"github.com/iliyamo/cinema-booking/internal/payment"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/ticket"
	"github.com/iliyamo/cinema-booking/internal/wizard"
)

// writeError maps service errors onto HTTP responses.  Every body has an
// "error" message; field validation failures add a "fields" map.
func writeError(c echo.Context, err error) error {
	var (
		fields  payment.FieldErrors
		invalid repository.ValidationError
		apiErr  *moviedb.APIError
	)
	switch {
	case errors.As(err, &fields):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid payment details", "fields": fields})
	case errors.As(err, &invalid):
		body := echo.Map{"error": invalid.Msg}
		if invalid.Field != "" {
			body["fields"] = map[string]string{invalid.Field: invalid.Msg}
		}
		return c.JSON(http.StatusBadRequest, body)

	case errors.Is(err, wizard.ErrSessionNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, moviedb.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})

	case errors.Is(err, repository.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "some of the selected seats were just booked, please choose again", "detail": err.Error()})
	case errors.Is(err, wizard.ErrWrongStep),
		errors.Is(err, wizard.ErrPaymentPending),
		errors.Is(err, wizard.ErrSoldOut),
		errors.Is(err, wizard.ErrSeatOccupied),
		errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})

	case errors.Is(err, wizard.ErrUnknownShowtime),
		errors.Is(err, wizard.ErrUnknownSeat),
		errors.Is(err, wizard.ErrNoSeats),
		errors.Is(err, wizard.ErrNoBack),
		errors.Is(err, inventory.ErrUnknownShowtime):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})

	case errors.Is(err, ticket.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired ticket"})

	case errors.As(err, &apiErr), errors.Is(err, wizard.ErrMovieUnavailable):
		log.Printf("handler: upstream failure: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie service unavailable"})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request cancelled"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
