package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// Booker validates booking requests and completes free ones.
type Booker interface {
	Prepare(ctx context.Context, userID uint64, in service.BookingInput) (service.TicketRequest, error)
	BookFree(ctx context.Context, req service.TicketRequest) ([]model.Ticket, error)
}

// IntentCreator opens payment intents for paid bookings.
type IntentCreator interface {
	Create(ctx context.Context, req service.TicketRequest) (service.Intent, error)
}

// BookingHandler serves POST /v1/book-tickets as a three-stage chain:
// LoadTicketRequest → BookFree → CreatePaymentIntent.  BookFree answers
// free bookings itself and passes paid ones down the chain.
type BookingHandler struct {
	Booker  Booker
	Intents IntentCreator
}

const ctxTicketRequest = "ticket_request"

const bookedMessage = "Tickets booked successfully!"

// LoadTicketRequest decodes and validates the booking body and stores the
// resulting service.TicketRequest for the stages after it.
func (h *BookingHandler) LoadTicketRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in service.BookingInput
		if err := c.Bind(&in); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
		uid, err := requester(c, in.RequestedBy)
		if err != nil {
			return fail(c, err)
		}
		req, err := h.Booker.Prepare(c.Request().Context(), uid, in)
		if err != nil {
			return fail(c, err)
		}
		c.Set(ctxTicketRequest, req)
		return next(c)
	}
}

// BookFree issues tickets for free events and hands paid events to next.
func (h *BookingHandler) BookFree(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, ok := c.Get(ctxTicketRequest).(service.TicketRequest)
		if !ok {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking request not loaded"})
		}
		tickets, err := h.Booker.BookFree(c.Request().Context(), req)
		if errors.Is(err, service.ErrPaidEvent) {
			return next(c)
		}
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message":        bookedMessage,
			"createdTickets": tickets,
		})
	}
}

// CreatePaymentIntent is the last stage: it opens a provider order for a
// paid booking and returns what the client's checkout needs.
func (h *BookingHandler) CreatePaymentIntent(c echo.Context) error {
	req, ok := c.Get(ctxTicketRequest).(service.TicketRequest)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking request not loaded"})
	}
	intent, err := h.Intents.Create(c.Request().Context(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, intent)
}
