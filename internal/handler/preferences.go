package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// CachePurger drops cached responses of a client.
// *middleware.CachePurger satisfies it.
type CachePurger interface {
	PurgeClient(ctx context.Context, client string) error
}

// PreferencesHandler reads and stores the movie list preferences.
type PreferencesHandler struct {
	Filters *repository.FiltersRepo
	Cache   CachePurger // optional
}

// Get returns the stored preferences or the defaults.
func (h *PreferencesHandler) Get(c echo.Context) error {
	p, err := h.Filters.Get(c.Request().Context(), middleware.Client(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Put validates and stores the preferences.  Cached movie lists of the
// client are dropped since they were filtered with the old values.
func (h *PreferencesHandler) Put(c echo.Context) error {
	var p model.FilterPreferences
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid body")
	}
	client := middleware.Client(c)
	saved, err := h.Filters.Put(c.Request().Context(), client, p)
	if err != nil {
		return writeError(c, err)
	}
	if h.Cache != nil {
		if err := h.Cache.PurgeClient(c.Request().Context(), client); err != nil {
			log.Printf("handler: purge cache of %s: %v", client, err)
		}
	}
	return c.JSON(http.StatusOK, saved)
}
