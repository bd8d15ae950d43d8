// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterRoutes registers the health endpoints.  They are not scoped to a
// client.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", h.Ready)
}

// ClientGroup returns the /v1 group every client scoped route lives in.
// Requests in it carry a client id (see middleware.ClientID).
func ClientGroup(e *echo.Echo) *echo.Group {
	return e.Group("/v1", middleware.ClientID())
}

// RegisterMovies registers movie browsing.  cache wraps the metadata reads;
// showtimes are not cached since their seat counts move with every booking.
func RegisterMovies(g *echo.Group, m *handler.MovieHandler, cache echo.MiddlewareFunc) {
	g.GET("/movies/popular", m.Popular, cache)
	g.GET("/movies/search", m.Search, cache)
	g.GET("/movies/:id", m.Details, cache)
	g.GET("/movies/:id/showtimes", m.Showtimes)
}

// RegisterAccount registers favorites, list preferences and the profile.
func RegisterAccount(g *echo.Group, f *handler.FavoritesHandler, p *handler.PreferencesHandler, pr *handler.ProfileHandler) {
	g.GET("/favorites", f.List)
	g.POST("/favorites", f.Toggle)
	g.GET("/favorites/:id", f.Contains)
	g.DELETE("/favorites/:id", f.Remove)

	g.GET("/preferences/filters", p.Get)
	g.PUT("/preferences/filters", p.Put)

	g.GET("/profile", pr.Get)
	g.PUT("/profile", pr.Update)
	g.PUT("/profile/password", pr.ChangePassword)
	g.GET("/profile/activity", pr.Activity)
}
