package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// ProfileHandler serves the profile page: details, password and activity.
type ProfileHandler struct {
	Profiles *service.ProfileService
}

func (h *ProfileHandler) Get(c echo.Context) error {
	p, err := h.Profiles.Get(c.Request().Context(), middleware.Client(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	var u service.ProfileUpdate
	if err := c.Bind(&u); err != nil {
		return badRequest(c, "invalid body")
	}
	p, err := h.Profiles.Update(c.Request().Context(), middleware.Client(c), u)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// ChangePassword answers 204 on success.  The password itself is never
// echoed back.
func (h *ProfileHandler) ChangePassword(c echo.Context) error {
	var pc service.PasswordChange
	if err := c.Bind(&pc); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := h.Profiles.ChangePassword(c.Request().Context(), middleware.Client(c), pc); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProfileHandler) Activity(c echo.Context) error {
	sum, err := h.Profiles.Activity(c.Request().Context(), middleware.Client(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
