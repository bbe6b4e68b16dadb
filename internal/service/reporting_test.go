package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/model"
)

func seedTickets(t *testing.T, s *memStore, userID, eventID uint64, n int) []model.Ticket {
	t.Helper()
	out, err := NewTicketGenerator(s).Issue(context.Background(), IssueRequest{Count: n, UserID: userID, EventID: eventID})
	require.NoError(t, err)
	return out
}

func TestUserTicketsGroupsByEvent(t *testing.T) {
	s := newMemStore()
	s.events[7] = model.Event{ID: 7, Title: "Go Meetup"}
	s.events[8] = model.Event{ID: 8, Title: "Open Day"}
	seedTickets(t, s, 1, 8, 1)
	seedTickets(t, s, 1, 7, 2)
	seedTickets(t, s, 1, 8, 1)
	seedTickets(t, s, 1, 404, 1)
	seedTickets(t, s, 2, 7, 5)

	rep, err := NewReports(s, eventStore{s}, userStore{s}).UserTickets(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 5, rep.TotalTickets)
	require.Len(t, rep.TicketData, 2)
	assert.Equal(t, uint64(8), rep.TicketData[0].EventInfo.ID)
	assert.Len(t, rep.TicketData[0].Tickets, 2)
	assert.Equal(t, uint64(7), rep.TicketData[1].EventInfo.ID)
	assert.Len(t, rep.TicketData[1].Tickets, 2)
}

func TestUserTicketsEmpty(t *testing.T) {
	s := newMemStore()
	rep, err := NewReports(s, eventStore{s}, userStore{s}).UserTickets(context.Background(), 1)

	require.NoError(t, err)
	assert.Zero(t, rep.TotalTickets)
	assert.NotNil(t, rep.TicketData)
}

func TestEventBookingsCountsDistinctUsers(t *testing.T) {
	s := newMemStore()
	s.events[7] = model.Event{ID: 7, OrganiserID: 99}
	s.users[1] = model.User{ID: 1, Email: "a@example.com", FirstName: "Asha", LastName: "Rao",
		CreatedAt: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)}
	s.users[2] = model.User{ID: 2, Email: "b@example.com", FirstName: "Ben", LastName: "Ng",
		CreatedAt: time.Date(2023, time.December, 25, 0, 0, 0, 0, time.UTC)}
	seedTickets(t, s, 1, 7, 2)
	seedTickets(t, s, 2, 7, 1)
	seedTickets(t, s, 1, 7, 1)
	seedTickets(t, s, 3, 7, 1) // user 3 no longer exists

	out, err := NewReports(s, eventStore{s}, userStore{s}).EventBookings(context.Background(), 99, 7)

	require.NoError(t, err)
	assert.Equal(t, []EventBooking{
		{TicketCount: 3, Name: "Asha Rao", Email: "a@example.com", ID: 1, JoinedOn: "Tue Mar 05 2024"},
		{TicketCount: 1, Name: "Ben Ng", Email: "b@example.com", ID: 2, JoinedOn: "Mon Dec 25 2023"},
	}, out)
}

func TestEventBookingsGuards(t *testing.T) {
	s := newMemStore()
	s.events[7] = model.Event{ID: 7, OrganiserID: 99}
	r := NewReports(s, eventStore{s}, userStore{s})
	ctx := context.Background()

	_, err := r.EventBookings(ctx, 99, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.EventBookings(ctx, 42, 7)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = r.EventBookings(ctx, 99, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCheckInAdmitsOnce(t *testing.T) {
	s := newMemStore()
	s.events[7] = model.Event{ID: 7, OrganiserID: 99}
	s.events[8] = model.Event{ID: 8, OrganiserID: 99}
	tickets := seedTickets(t, s, 1, 7, 2)
	other := seedTickets(t, s, 1, 8, 1)
	c := NewCheckIn(eventStore{s}, s)
	ctx := context.Background()

	got, err := c.Verify(ctx, 99, 7, " "+tickets[0].Code+" ")
	require.NoError(t, err)
	assert.NotNil(t, got.CheckedInAt)

	_, err = c.Verify(ctx, 99, 7, tickets[0].Code)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	_, err = c.Verify(ctx, 99, 7, other[0].Code)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Verify(ctx, 98, 7, tickets[1].Code)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = c.Verify(ctx, 99, 7, "")
	assert.ErrorIs(t, err, ErrValidation)

	rep, err := c.Attendance(ctx, 99, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Issued)
	assert.Equal(t, 1, rep.CheckedIn)
	require.Len(t, rep.Attendees, 2)
	assert.Equal(t, tickets[0].Code, rep.Attendees[0].TicketCode)
}
