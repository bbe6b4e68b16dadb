package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

type fakeReports struct {
	userID, organiserID, eventID uint64
}

func (f *fakeReports) UserTickets(_ context.Context, uid uint64) (service.UserTicketsReport, error) {
	f.userID = uid
	return service.UserTicketsReport{TotalTickets: 1, TicketData: []service.EventTickets{}}, nil
}

func (f *fakeReports) EventBookings(_ context.Context, organiserID, eventID uint64) ([]service.EventBooking, error) {
	f.organiserID, f.eventID = organiserID, eventID
	if eventID == 0 {
		return nil, &service.Error{Kind: service.ErrValidation, Msg: "eventId not received"}
	}
	return []service.EventBooking{}, nil
}

type fakeDoorman struct{ admitted map[string]bool }

func (f *fakeDoorman) Verify(_ context.Context, _, _ uint64, code string) (model.Ticket, error) {
	if f.admitted[code] {
		return model.Ticket{}, &service.Error{Kind: service.ErrAlreadyCheckedIn, Msg: "ticket already checked in"}
	}
	f.admitted[code] = true
	return model.Ticket{Code: code}, nil
}

func (f *fakeDoorman) Attendance(_ context.Context, _, eventID uint64) (service.AttendanceReport, error) {
	return service.AttendanceReport{EventID: eventID, Attendees: []service.Attendee{}}, nil
}

func ticketServer(r *fakeReports, d *fakeDoorman) *echo.Echo {
	h := &TicketHandler{Reports: r, CheckIn: d}
	e := echo.New()
	g := e.Group("/v1", as(3))
	g.POST("/my-tickets", h.MyTickets)
	g.POST("/event-bookings", h.EventBookings)
	g.POST("/verify-tickets", h.VerifyTicket)
	g.POST("/attendance", h.Attendance)
	return e
}

func TestMyTicketsUsesCaller(t *testing.T) {
	r := &fakeReports{}
	rec := post(ticketServer(r, nil), "/v1/my-tickets", `{}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(3), r.userID)
	assert.JSONEq(t, `{"totalTickets":1,"ticketData":[]}`, rec.Body.String())

	rec = post(ticketServer(r, nil), "/v1/my-tickets", `{"requestedBy":4}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventBookingsNeedsEventID(t *testing.T) {
	r := &fakeReports{}
	e := ticketServer(r, nil)

	rec := post(e, "/v1/event-bookings", `{"requestedBy":3}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"eventId not received"}`, rec.Body.String())

	rec = post(e, "/v1/event-bookings", `{"eventId":9}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(3), r.organiserID)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestVerifyTicketTwice(t *testing.T) {
	e := ticketServer(&fakeReports{}, &fakeDoorman{admitted: map[string]bool{}})
	body := `{"eventId":9,"ticketCode":"abc"}`

	assert.Equal(t, http.StatusOK, post(e, "/v1/verify-tickets", body, nil).Code)
	assert.Equal(t, http.StatusConflict, post(e, "/v1/verify-tickets", body, nil).Code)

	rec := post(e, "/v1/attendance", `{"eventId":9}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"eventId":9`)
}
