package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/moviedb"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

// MovieCatalog is the movie metadata source.  *moviedb.Client satisfies it.
type MovieCatalog interface {
	Details(ctx context.Context, id int64) (model.MovieDetails, error)
	Popular(ctx context.Context, page int) (model.MoviePage, error)
	Search(ctx context.Context, query string, page int) (model.MoviePage, error)
}

// MovieHandler serves movie browsing.  Lists are filtered and sorted by the
// client's stored preferences.
type MovieHandler struct {
	Movies  MovieCatalog
	Filters *repository.FiltersRepo
	Shows   inventory.Provider
}

// movieList is a page of movies after the preferences were applied.
type movieList struct {
	Page         int                     `json:"page"`
	TotalPages   int                     `json:"total_pages"`
	TotalResults int                     `json:"total_results"`
	Results      []model.MovieListItem   `json:"results"`
	Languages    []string                `json:"languages"`
	Filters      model.FilterPreferences `json:"filters"`
}

func pageParam(c echo.Context) (int, bool) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 500 {
		return 0, false
	}
	return n, true
}

func idParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func (h *MovieHandler) filtered(c echo.Context, page model.MoviePage) error {
	prefs, err := h.Filters.Get(c.Request().Context(), middleware.Client(c))
	if err != nil {
		// fall back to the defaults
		log.Printf("handler: load filters: %v", err)
		prefs = model.DefaultFilterPreferences()
	}
	return c.JSON(http.StatusOK, movieList{
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
		Results:      moviedb.ApplyFilters(page.Results, prefs),
		Languages:    moviedb.Languages(page.Results),
		Filters:      prefs,
	})
}

// Popular lists popular movies.  GET /v1/movies/popular?page=N
func (h *MovieHandler) Popular(c echo.Context) error {
	page, ok := pageParam(c)
	if !ok {
		return badRequest(c, "page must be between 1 and 500")
	}
	res, err := h.Movies.Popular(c.Request().Context(), page)
	if err != nil {
		return writeError(c, err)
	}
	return h.filtered(c, res)
}

// Search finds movies by title.  GET /v1/movies/search?q=...&page=N
func (h *MovieHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(c, "q is required")
	}
	page, ok := pageParam(c)
	if !ok {
		return badRequest(c, "page must be between 1 and 500")
	}
	res, err := h.Movies.Search(c.Request().Context(), q, page)
	if err != nil {
		return writeError(c, err)
	}
	return h.filtered(c, res)
}

// Details returns one movie with cast and videos.
func (h *MovieHandler) Details(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	m, err := h.Movies.Details(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// Showtimes lists the showtimes of a movie with their remaining seats.
func (h *MovieHandler) Showtimes(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return badRequest(c, "invalid movie id")
	}
	shows, err := h.Shows.ListShowtimes(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}
