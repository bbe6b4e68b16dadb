package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// IssueRequest asks for Count new tickets.  OrderID links paid tickets to
// the provider order that paid for them and is empty for free bookings.
type IssueRequest struct {
	Count   int
	UserID  uint64
	EventID uint64
	OrderID string
}

// TicketIssuer creates exactly Count tickets per call.  It has no dedup
// key: calling it twice issues twice, so callers guarantee at-most-once.
type TicketIssuer interface {
	Issue(ctx context.Context, req IssueRequest) ([]model.Ticket, error)
}

// TicketGenerator issues tickets with random UUID codes.
type TicketGenerator struct {
	tickets TicketStore
	newCode func() string
}

// NewTicketGenerator returns a TicketGenerator writing to tickets.
func NewTicketGenerator(tickets TicketStore) *TicketGenerator {
	return &TicketGenerator{tickets: tickets, newCode: uuid.NewString}
}

func (g *TicketGenerator) Issue(ctx context.Context, req IssueRequest) ([]model.Ticket, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("issue: count must be positive, got %d", req.Count)
	}
	var orderID *string
	if req.OrderID != "" {
		o := req.OrderID
		orderID = &o
	}
	batch := make([]model.Ticket, req.Count)
	for i := range batch {
		batch[i] = model.Ticket{
			Code:    g.newCode(),
			UserID:  req.UserID,
			EventID: req.EventID,
			OrderID: orderID,
		}
	}
	return g.tickets.CreateBulk(ctx, batch)
}
