package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// FavoritesHandler manages the client's favorite movies.
type FavoritesHandler struct {
	Favorites *repository.FavoritesRepo
}

// List returns the favorites in the order they were added.
func (h *FavoritesHandler) List(c echo.Context) error {
	items, err := h.Favorites.List(c.Request().Context(), middleware.Client(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Toggle adds the posted movie or removes it when it is already a
// favorite.
func (h *FavoritesHandler) Toggle(c echo.Context) error {
	var m model.MovieSummary
	if err := c.Bind(&m); err != nil {
		return badRequest(c, "invalid body")
	}
	added, err := h.Favorites.Toggle(c.Request().Context(), middleware.Client(c), m)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": m.ID, "favorite": added})
}

// Contains reports whether the movie is a favorite.
func (h *FavoritesHandler) Contains(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	fav, err := h.Favorites.Contains(c.Request().Context(), middleware.Client(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "favorite": fav})
}

// Remove drops the movie from the favorites.
func (h *FavoritesHandler) Remove(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	if err := h.Favorites.Remove(c.Request().Context(), middleware.Client(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
