package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRoutes groups the handlers behind the booking and ticket routes.
type TicketRoutes struct {
	Booking   *handler.BookingHandler
	Payments  *handler.PaymentHandler
	Tickets   *handler.TicketHandler
	JWTSecret string
	// BookingLimit and VerifyLimit guard the routes that reach the
	// payment provider.
	BookingLimit echo.MiddlewareFunc
	VerifyLimit  echo.MiddlewareFunc
}

// RegisterTickets registers the booking, payment and ticket routes.  The
// webhook route is the only one without JWTAuth; the provider
// authenticates with the body signature instead.
func RegisterTickets(e *echo.Echo, r TicketRoutes) {
	e.POST("/v1/verify-payments-webhook", r.Payments.PaymentWebhook)

	g := e.Group("/v1",
		middleware.JWTAuth(r.JWTSecret),
		middleware.RequireRole(bookingRoles...),
	)
	g.POST("/book-tickets", r.Booking.CreatePaymentIntent,
		r.BookingLimit,
		r.Booking.LoadTicketRequest,
		r.Booking.BookFree,
	)
	g.POST("/verify-payments", r.Payments.VerifyPayment, r.VerifyLimit)
	g.POST("/my-tickets", r.Tickets.MyTickets)

	org := e.Group("/v1",
		middleware.JWTAuth(r.JWTSecret),
		middleware.RequireRole(model.RoleOrganiser),
	)
	org.POST("/event-bookings", r.Tickets.EventBookings)
	org.POST("/verify-tickets", r.Tickets.VerifyTicket)
	org.POST("/attendance", r.Tickets.Attendance)
}
