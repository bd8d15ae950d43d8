package middleware

// client.go resolves the client namespace of a request.  Every stored blob
// (bookings, favorites, profile, ...) lives under "<client>:<key>"; the
// client is named by the X-Client-ID header.  Requests without the header
// share the "default" namespace.

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/kvstore"
)

const (
	// ClientHeader names the request header carrying the client id.
	ClientHeader = "X-Client-ID"
	// DefaultClient is used when the header is absent.
	DefaultClient = kvstore.DefaultNamespace

	clientKey = "client_id"
)

var clientPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ClientID stores the request's client id in the context.  Ids outside
// [A-Za-z0-9_-]{1,64} are rejected with 400 since they become part of
// store keys.
func ClientID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(ClientHeader)
			if id == "" {
				id = DefaultClient
			}
			if !clientPattern.MatchString(id) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + ClientHeader})
			}
			c.Set(clientKey, id)
			c.Response().Header().Set(ClientHeader, id)
			return next(c)
		}
	}
}

// Client returns the client id set by ClientID, or DefaultClient.
func Client(c echo.Context) string {
	if s, ok := c.Get(clientKey).(string); ok && s != "" {
		return s
	}
	return DefaultClient
}
