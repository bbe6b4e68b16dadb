package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// CheckIn admits ticket holders at the door.
type CheckIn struct {
	events  EventStore
	tickets TicketStore
	now     func() time.Time
}

func NewCheckIn(events EventStore, tickets TicketStore) *CheckIn {
	return &CheckIn{events: events, tickets: tickets, now: time.Now}
}

// Attendee is one issued ticket in an attendance report.
type Attendee struct {
	TicketCode  string     `json:"ticketCode"`
	UserID      uint64     `json:"userId"`
	CheckedInAt *time.Time `json:"checkedInAt"`
}

// AttendanceReport summarises admissions for an event.
type AttendanceReport struct {
	EventID   uint64     `json:"eventId"`
	Issued    int        `json:"issued"`
	CheckedIn int        `json:"checkedIn"`
	Attendees []Attendee `json:"attendees"`
}

// Verify admits the ticket with code for eventID.  A ticket is admitted
// once; later scans fail with ErrAlreadyCheckedIn.
func (c *CheckIn) Verify(ctx context.Context, organiserID, eventID uint64, code string) (model.Ticket, error) {
	code = strings.TrimSpace(code)
	if eventID == 0 || code == "" {
		return model.Ticket{}, newErr(ErrValidation, "eventId and ticketCode are required", nil)
	}
	if _, err := ownedEvent(ctx, c.events, organiserID, eventID); err != nil {
		return model.Ticket{}, err
	}

	t, err := c.tickets.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Ticket{}, newErr(ErrNotFound, "ticket not found", err)
		}
		return model.Ticket{}, newErr(ErrPersistence, "could not load ticket", err)
	}
	if t.EventID != eventID {
		return model.Ticket{}, newErr(ErrNotFound, "ticket not found", nil)
	}

	ok, err := c.tickets.CheckIn(ctx, t.ID)
	if err != nil {
		return model.Ticket{}, newErr(ErrPersistence, "could not check in ticket", err)
	}
	if !ok {
		return t, newErr(ErrAlreadyCheckedIn, "ticket already checked in", nil)
	}
	now := c.now().UTC()
	t.CheckedInAt = &now
	return t, nil
}

// Attendance reports issued and admitted tickets for eventID.
func (c *CheckIn) Attendance(ctx context.Context, organiserID, eventID uint64) (AttendanceReport, error) {
	if eventID == 0 {
		return AttendanceReport{}, newErr(ErrValidation, "eventId not received", nil)
	}
	if _, err := ownedEvent(ctx, c.events, organiserID, eventID); err != nil {
		return AttendanceReport{}, err
	}
	tickets, err := c.tickets.ListByEvent(ctx, eventID)
	if err != nil {
		return AttendanceReport{}, newErr(ErrPersistence, "could not load tickets", err)
	}

	rep := AttendanceReport{EventID: eventID, Issued: len(tickets), Attendees: make([]Attendee, 0, len(tickets))}
	for _, t := range tickets {
		if t.CheckedInAt != nil {
			rep.CheckedIn++
		}
		rep.Attendees = append(rep.Attendees, Attendee{
			TicketCode:  t.Code,
			UserID:      t.UserID,
			CheckedInAt: t.CheckedInAt,
		})
	}
	return rep, nil
}
