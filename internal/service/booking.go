package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// FreeFlag is the isFree field of a booking request.  Clients send the
// strings "Yes" / "No"; JSON booleans are accepted as well.  Any other
// value decodes without error and is reported by Value so the caller can
// answer with a validation message instead of a decoder error.
type FreeFlag struct {
	set   bool
	valid bool
	free  bool
}

func (f *FreeFlag) UnmarshalJSON(b []byte) error {
	f.set = true
	f.valid = true
	switch string(bytes.TrimSpace(b)) {
	case `"Yes"`, `"yes"`, "true":
		f.free = true
	case `"No"`, `"no"`, "false":
		f.free = false
	case "null":
		f.set = false
	default:
		f.valid = false
	}
	return nil
}

func (f FreeFlag) MarshalJSON() ([]byte, error) {
	if !f.set || !f.valid {
		return []byte("null"), nil
	}
	if f.free {
		return json.Marshal("Yes")
	}
	return json.Marshal("No")
}

// Value returns the decoded flag.  ok is false when the field was missing
// or held an unrecognised value.
func (f FreeFlag) Value() (free, ok bool) {
	return f.free, f.set && f.valid
}

// NewFreeFlag builds a set flag, mainly for callers constructing requests
// in code.
func NewFreeFlag(free bool) FreeFlag {
	return FreeFlag{set: true, valid: true, free: free}
}

// BookingInput is the body of a booking request:
//
//	{"eventData": {"eventDetails": {"isFree", "price", "title"}}, "requestedBy", "eventId", "count"}
type BookingInput struct {
	EventData   EventData `json:"eventData"`
	RequestedBy uint64    `json:"requestedBy"`
	EventID     uint64    `json:"eventId"`
	Count       int       `json:"count"`
}

type EventData struct {
	EventDetails EventDetails `json:"eventDetails"`
}

// EventDetails is the client's copy of the event.  It is validated but
// never trusted for pricing.
type EventDetails struct {
	IsFree FreeFlag `json:"isFree"`
	Price  int64    `json:"price"`
	Title  string   `json:"title"`
}

// TicketRequest is a validated booking request.  Event is the stored
// event; its IsFree, Price and Title are authoritative over whatever the
// client sent.
type TicketRequest struct {
	UserID uint64
	Count  int
	Event  model.Event
}

// Orchestrator validates booking requests and completes free bookings.
// Paid bookings are handed to the IntentService.
type Orchestrator struct {
	tx         Transactor
	events     EventStore
	users      UserStore
	issuer     TicketIssuer
	notifier   Notifier
	log        *zap.Logger
	maxTickets int
}

// NewOrchestrator wires an Orchestrator.  notifier may be nil.
func NewOrchestrator(tx Transactor, events EventStore, users UserStore, issuer TicketIssuer, notifier Notifier, maxTickets int, log *zap.Logger) *Orchestrator {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		tx:         tx,
		events:     events,
		users:      users,
		issuer:     issuer,
		notifier:   notifier,
		log:        log,
		maxTickets: maxTickets,
	}
}

// Prepare validates in for userID and resolves the stored event.
func (o *Orchestrator) Prepare(ctx context.Context, userID uint64, in BookingInput) (TicketRequest, error) {
	if in.EventID == 0 {
		return TicketRequest{}, newErr(ErrValidation, "eventId is required", nil)
	}
	if in.Count < 1 {
		return TicketRequest{}, newErr(ErrValidation, "count must be at least 1", nil)
	}
	if o.maxTickets > 0 && in.Count > o.maxTickets {
		return TicketRequest{}, newErr(ErrValidation, "too many tickets in one booking", nil)
	}
	claimedFree, ok := in.EventData.EventDetails.IsFree.Value()
	if !ok {
		return TicketRequest{}, newErr(ErrValidation, `isFree must be "Yes" or "No"`, nil)
	}

	ev, err := o.events.GetByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TicketRequest{}, newErr(ErrNotFound, "event not found", err)
		}
		return TicketRequest{}, newErr(ErrPersistence, "could not load event", err)
	}
	if claimedFree != ev.IsFree {
		o.log.Warn("booking request disagrees with stored event",
			zap.Uint64("event_id", ev.ID),
			zap.Bool("claimed_free", claimedFree),
			zap.Bool("stored_free", ev.IsFree),
		)
	}
	return TicketRequest{UserID: userID, Count: in.Count, Event: ev}, nil
}

// BookFree issues tickets for a free event and records the booking.  For a
// paid event it returns ErrPaidEvent without side effects.
func (o *Orchestrator) BookFree(ctx context.Context, req TicketRequest) ([]model.Ticket, error) {
	if !req.Event.IsFree {
		return nil, ErrPaidEvent
	}
	var tickets []model.Ticket
	err := o.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tickets, err = o.issuer.Issue(ctx, IssueRequest{
			Count:   req.Count,
			UserID:  req.UserID,
			EventID: req.Event.ID,
		})
		if err != nil {
			return err
		}
		return o.users.AppendBookedEvent(ctx, req.UserID, req.Event.ID)
	})
	if err != nil {
		return nil, newErr(ErrPersistence, "could not book tickets", err)
	}

	o.log.Info("free booking confirmed",
		zap.Uint64("user_id", req.UserID),
		zap.Uint64("event_id", req.Event.ID),
		zap.Int("count", len(tickets)),
	)
	publish(ctx, o.log, func(ctx context.Context) error {
		return o.notifier.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			UserID:      req.UserID,
			EventID:     req.Event.ID,
			EventTitle:  req.Event.Title,
			TicketCodes: codes(tickets),
			Source:      "free",
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		})
	})
	return tickets, nil
}

var publishTimeout = 5 * time.Second

// publish runs fn with a bounded context detached from the request's
// cancellation.  Failures are logged only.
func publish(ctx context.Context, log *zap.Logger, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn("notification not published", zap.Error(err))
	}
}

func codes(tickets []model.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.Code
	}
	return out
}
