package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterBooking registers the booking wizard, the booking history with
// its ticket exports and ticket verification.  limit guards the endpoints
// that run a payment or write a booking.
func RegisterBooking(e *echo.Echo, g *echo.Group, w *handler.WizardHandler, b *handler.BookingHandler,
	limit echo.MiddlewareFunc, verifier middleware.TicketVerifier) {
	s := g.Group("/sessions")
	s.POST("", w.Start)
	s.GET("/:id", w.Get)
	s.DELETE("/:id", w.Abandon)
	s.POST("/:id/showtime", w.SelectShowtime)
	s.POST("/:id/seats/:seat", w.ToggleSeat)
	s.POST("/:id/seats/confirm", w.ConfirmSeats)
	s.POST("/:id/back", w.Back)
	s.POST("/:id/payment", w.SubmitPayment, limit)
	s.POST("/:id/confirm", w.Confirm, limit)

	g.GET("/bookings", b.List)
	g.GET("/bookings/:txn", b.Get)
	g.POST("/bookings/:txn/cancel", b.Cancel)
	g.DELETE("/bookings/:txn", b.Remove)
	g.GET("/bookings/:txn/ticket.txt", b.TicketText)
	g.GET("/bookings/:txn/ticket.pdf", b.TicketPDF)
	g.GET("/bookings/:txn/ticket.png", b.TicketQR)
	g.GET("/bookings/:txn/share", b.Share)
	g.GET("/bookings/:txn/token", b.Token)

	if verifier != nil {
		e.GET("/v1/tickets/verify", b.Verify, middleware.TicketToken(verifier))
	}
}
