package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// StoreProbe is the read the readiness check performs against the store.
type StoreProbe interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// SessionCounter reports how many wizard sessions are live.
type SessionCounter interface {
	Active() int
}

// HealthHandler serves the liveness and readiness endpoints.
type HealthHandler struct {
	Store    StoreProbe
	Sessions SessionCounter
}

// Health is the liveness check used by load balancers.  It returns a plain
// text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready reads a probe key from the store.  A store that cannot answer
// within two seconds makes the service unready.
func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if _, _, err := h.Store.Get(ctx, "health:probe"); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
	}
	body := echo.Map{"status": "ready"}
	if h.Sessions != nil {
		body["sessions"] = h.Sessions.Active()
	}
	return c.JSON(http.StatusOK, body)
}
