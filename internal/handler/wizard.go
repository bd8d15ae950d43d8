package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/payment"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/wizard"
)

// WizardHandler exposes the booking wizard.  Each session belongs to the
// client that started it; other clients get 404.
type WizardHandler struct {
	Wizard *wizard.Wizard
}

type startRequest struct {
	MovieID int64 `json:"movieId"`
}

type showtimeRequest struct {
	ShowtimeID string `json:"showtimeId"`
}

// Start opens a session for a movie.  POST /v1/sessions {"movieId": 27205}
func (h *WizardHandler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.MovieID <= 0 {
		return badRequest(c, "movieId is required")
	}
	s, err := h.Wizard.Start(c.Request().Context(), middleware.Client(c), req.MovieID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// Get returns the session state.
func (h *WizardHandler) Get(c echo.Context) error {
	s, err := h.Wizard.Get(middleware.Client(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Abandon discards the session.
func (h *WizardHandler) Abandon(c echo.Context) error {
	if err := h.Wizard.Abandon(middleware.Client(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SelectShowtime picks the showtime and returns the session with its seat
// map.
func (h *WizardHandler) SelectShowtime(c echo.Context) error {
	var req showtimeRequest
	if err := c.Bind(&req); err != nil || req.ShowtimeID == "" {
		return badRequest(c, "showtimeId is required")
	}
	s, err := h.Wizard.SelectShowtime(c.Request().Context(), middleware.Client(c), c.Param("id"), req.ShowtimeID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ToggleSeat selects or unselects one seat.
func (h *WizardHandler) ToggleSeat(c echo.Context) error {
	s, err := h.Wizard.ToggleSeat(middleware.Client(c), c.Param("id"), c.Param("seat"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ConfirmSeats moves to the payment step.
func (h *WizardHandler) ConfirmSeats(c echo.Context) error {
	s, err := h.Wizard.ConfirmSeats(middleware.Client(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Back returns to the previous step.
func (h *WizardHandler) Back(c echo.Context) error {
	s, err := h.Wizard.Back(middleware.Client(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// SubmitPayment runs the payment and stores the booking.  The response
// arrives after the simulated processing delay.  A lost seat race answers
// 409 together with the session, which is back at seat selection.
func (h *WizardHandler) SubmitPayment(c echo.Context) error {
	var form payment.Form
	if err := c.Bind(&form); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.Wizard.SubmitPayment(c.Request().Context(), middleware.Client(c), c.Param("id"), form)
	if err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error(), "session": s})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// Confirm writes the confirmed booking again; repeating it is harmless.
func (h *WizardHandler) Confirm(c echo.Context) error {
	s, err := h.Wizard.Confirm(c.Request().Context(), middleware.Client(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
