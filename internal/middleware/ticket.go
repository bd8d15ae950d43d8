package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/ticket"
)

const ticketClaimsKey = "ticket_claims"

// TicketVerifier checks a signed ticket token.  *ticket.Signer satisfies it.
type TicketVerifier interface {
	Verify(raw string) (*ticket.Claims, error)
}

// TicketToken validates the ticket token sent as "Authorization: Bearer
// <token>" or as the token query parameter and stores its claims for the
// handler.  Missing or invalid tokens are answered with 401.
func TicketToken(v TicketVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.QueryParam("token")
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing ticket token"})
			}
			claims, err := v.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired ticket"})
			}
			c.Set(ticketClaimsKey, claims)
			return next(c)
		}
	}
}

// TicketClaims returns the claims stored by TicketToken.
func TicketClaims(c echo.Context) (*ticket.Claims, bool) {
	cl, ok := c.Get(ticketClaimsKey).(*ticket.Claims)
	return cl, ok
}
