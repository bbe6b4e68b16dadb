package service

import (
	"context"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
)

// Transactor runs fn atomically.  Stores called with the context passed to
// fn join the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentStore persists payment attempts.  Lookups that match nothing
// return repository.ErrNotFound.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByOrder(ctx context.Context, orderID string, amount int64) (model.Payment, error)
	// Transition performs the guarded pending → t.To update and reports
	// whether this call won it.
	Transition(ctx context.Context, t model.Transition) (bool, error)
}

// TicketStore persists and queries tickets.
type TicketStore interface {
	CreateBulk(ctx context.Context, tickets []model.Ticket) ([]model.Ticket, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Ticket, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Ticket, error)
	GetByCode(ctx context.Context, code string) (model.Ticket, error)
	CheckIn(ctx context.Context, ticketID uint64) (bool, error)
}

// EventStore reads events.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Event, error)
}

// UserStore reads users and maintains their booked-events multiset.
type UserStore interface {
	GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.User, error)
	AppendBookedEvent(ctx context.Context, userID, eventID uint64) error
}

// PaymentGateway is the payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (gateway.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (gateway.Payment, error)
}

// Notifier fans booking and payment events out to other systems.  It is
// best effort: a failed publish never fails the operation that caused it.
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishPaymentReconciled(ctx context.Context, ev queue.PaymentReconciledEvent) error
}

type nopNotifier struct{}

func (nopNotifier) PublishBookingConfirmed(context.Context, queue.BookingConfirmedEvent) error {
	return nil
}

func (nopNotifier) PublishPaymentReconciled(context.Context, queue.PaymentReconciledEvent) error {
	return nil
}
