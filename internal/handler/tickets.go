package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// TicketReports serves the read-only ticket views.
type TicketReports interface {
	UserTickets(ctx context.Context, userID uint64) (service.UserTicketsReport, error)
	EventBookings(ctx context.Context, organiserID, eventID uint64) ([]service.EventBooking, error)
}

// Doorman admits ticket holders.
type Doorman interface {
	Verify(ctx context.Context, organiserID, eventID uint64, code string) (model.Ticket, error)
	Attendance(ctx context.Context, organiserID, eventID uint64) (service.AttendanceReport, error)
}

// TicketHandler groups the ticket read routes and the organiser door
// routes.  All of them sit behind JWTAuth.
type TicketHandler struct {
	Reports TicketReports
	CheckIn Doorman
}

type eventReq struct {
	RequestedBy uint64 `json:"requestedBy"`
	EventID     uint64 `json:"eventId"`
	TicketCode  string `json:"ticketCode"`
}

// MyTickets handles POST /v1/my-tickets.
func (h *TicketHandler) MyTickets(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := requester(c, req.RequestedBy)
	if err != nil {
		return fail(c, err)
	}
	rep, err := h.Reports.UserTickets(c.Request().Context(), uid)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// EventBookings handles POST /v1/event-bookings.
func (h *TicketHandler) EventBookings(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := requester(c, req.RequestedBy)
	if err != nil {
		return fail(c, err)
	}
	out, err := h.Reports.EventBookings(c.Request().Context(), uid, req.EventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// VerifyTicket handles POST /v1/verify-tickets.
func (h *TicketHandler) VerifyTicket(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := requester(c, req.RequestedBy)
	if err != nil {
		return fail(c, err)
	}
	t, err := h.CheckIn.Verify(c.Request().Context(), uid, req.EventID, req.TicketCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Ticket verified", "ticket": t})
}

// Attendance handles POST /v1/attendance.
func (h *TicketHandler) Attendance(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uid, err := requester(c, req.RequestedBy)
	if err != nil {
		return fail(c, err)
	}
	rep, err := h.CheckIn.Attendance(c.Request().Context(), uid, req.EventID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
