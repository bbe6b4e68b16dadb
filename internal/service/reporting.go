package service

import (
	"context"
	"errors"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// joinedOnLayout renders dates like "Tue Mar 05 2024".
const joinedOnLayout = "Mon Jan 02 2006"

// EventTickets is one group of a user's tickets.
type EventTickets struct {
	Tickets   []model.Ticket `json:"tickets"`
	EventInfo model.Event    `json:"eventInfo"`
}

// UserTicketsReport lists a user's tickets grouped by event.
type UserTicketsReport struct {
	TotalTickets int            `json:"totalTickets"`
	TicketData   []EventTickets `json:"ticketData"`
}

// EventBooking is one distinct user who booked an event.
type EventBooking struct {
	TicketCount int    `json:"ticketCount"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ID          uint64 `json:"_id"`
	JoinedOn    string `json:"joinedOn"`
}

// Reports serves the read-only ticket views.
type Reports struct {
	tickets TicketStore
	events  EventStore
	users   UserStore
}

func NewReports(tickets TicketStore, events EventStore, users UserStore) *Reports {
	return &Reports{tickets: tickets, events: events, users: users}
}

// UserTickets groups userID's tickets by event, in the order each event is
// first seen.  Tickets for events that no longer exist are counted but not
// listed.
func (r *Reports) UserTickets(ctx context.Context, userID uint64) (UserTicketsReport, error) {
	tickets, err := r.tickets.ListByUser(ctx, userID)
	if err != nil {
		return UserTicketsReport{}, newErr(ErrPersistence, "could not load tickets", err)
	}

	var order []uint64
	byEvent := map[uint64][]model.Ticket{}
	for _, t := range tickets {
		if _, seen := byEvent[t.EventID]; !seen {
			order = append(order, t.EventID)
		}
		byEvent[t.EventID] = append(byEvent[t.EventID], t)
	}

	events, err := r.events.GetByIDs(ctx, order)
	if err != nil {
		return UserTicketsReport{}, newErr(ErrPersistence, "could not load events", err)
	}

	report := UserTicketsReport{TotalTickets: len(tickets), TicketData: []EventTickets{}}
	for _, id := range order {
		ev, ok := events[id]
		if !ok {
			continue
		}
		report.TicketData = append(report.TicketData, EventTickets{Tickets: byEvent[id], EventInfo: ev})
	}
	return report, nil
}

// EventBookings lists the distinct users holding tickets for eventID with
// their ticket counts.  Only the event's organiser may ask.
func (r *Reports) EventBookings(ctx context.Context, organiserID, eventID uint64) ([]EventBooking, error) {
	if eventID == 0 {
		return nil, newErr(ErrValidation, "eventId not received", nil)
	}
	if _, err := ownedEvent(ctx, r.events, organiserID, eventID); err != nil {
		return nil, err
	}

	tickets, err := r.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, newErr(ErrPersistence, "could not load tickets", err)
	}
	var order []uint64
	counts := map[uint64]int{}
	for _, t := range tickets {
		if _, seen := counts[t.UserID]; !seen {
			order = append(order, t.UserID)
		}
		counts[t.UserID]++
	}

	users, err := r.users.GetByIDs(ctx, order)
	if err != nil {
		return nil, newErr(ErrPersistence, "could not load users", err)
	}
	out := make([]EventBooking, 0, len(order))
	for _, id := range order {
		u, ok := users[id]
		if !ok {
			continue
		}
		out = append(out, EventBooking{
			TicketCount: counts[id],
			Name:        u.FullName(),
			Email:       u.Email,
			ID:          u.ID,
			JoinedOn:    u.CreatedAt.Format(joinedOnLayout),
		})
	}
	return out, nil
}

// ownedEvent loads eventID and checks that organiserID runs it.
func ownedEvent(ctx context.Context, events EventStore, organiserID, eventID uint64) (model.Event, error) {
	ev, err := events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Event{}, newErr(ErrNotFound, "event not found", err)
		}
		return model.Event{}, newErr(ErrPersistence, "could not load event", err)
	}
	if ev.OrganiserID != organiserID {
		return model.Event{}, newErr(ErrForbidden, "event belongs to another organiser", nil)
	}
	return ev, nil
}
