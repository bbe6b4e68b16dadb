package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

type booking struct{ userID, eventID uint64 }

// memStore is an in-memory stand-in for the MySQL repositories.  It
// implements PaymentStore and TicketStore; eventStore and userStore adapt
// it to the remaining interfaces.
type memStore struct {
	mu       sync.Mutex
	payments map[string]model.Payment
	tickets  []model.Ticket
	booked   []booking
	events   map[uint64]model.Event
	users    map[uint64]model.User
	nextID   uint64

	createErr error
	issueErr  error
	appendErr error

	transitionCalls int
	transitionWins  int
}

func newMemStore() *memStore {
	return &memStore{
		payments: map[string]model.Payment{},
		events:   map[uint64]model.Event{},
		users:    map[uint64]model.User{},
	}
}

// undoLog collects the inverse of every write made inside one memTx.
type undoLog struct{ fns []func() }

type undoKey struct{}

// onRollback registers fn to run, under s.mu, if the surrounding memTx
// fails.  Writes outside a memTx are final.  Callers hold s.mu.
func (s *memStore) onRollback(ctx context.Context, fn func()) {
	if u, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		u.fns = append(u.fns, fn)
	}
}

// memTx undoes a transaction's writes on error.  It takes no lock of its
// own: concurrent transactions interleave freely and only the store's
// guarded Transition decides which of them wins.
type memTx struct {
	s *memStore
}

func (m *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(undoKey{}).(*undoLog); nested {
		return fn(ctx)
	}
	u := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey{}, u)); err != nil {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
		for i := len(u.fns) - 1; i >= 0; i-- {
			u.fns[i]()
		}
		return err
	}
	return nil
}

func (s *memStore) Create(_ context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, dup := s.payments[p.OrderID]; dup {
		return repository.ErrConflict
	}
	s.nextID++
	p.ID = s.nextID
	s.payments[p.OrderID] = *p
	return nil
}

func (s *memStore) GetByOrder(_ context.Context, orderID string, amount int64) (model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[orderID]
	if !ok || p.Amount != amount {
		return model.Payment{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *memStore) Transition(ctx context.Context, t model.Transition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.To != model.PaymentCaptured && t.To != model.PaymentFailed {
		return false, fmt.Errorf("invalid target %q", t.To)
	}
	s.transitionCalls++
	p, ok := s.payments[t.OrderID]
	if !ok || p.Amount != t.Amount {
		return false, repository.ErrNotFound
	}
	if p.Status != model.PaymentPending {
		return false, nil
	}
	prev := p
	s.transitionWins++
	s.onRollback(ctx, func() {
		s.payments[t.OrderID] = prev
		s.transitionWins--
	})
	p.Status = t.To
	if t.To == model.PaymentCaptured {
		p.AmountPaid = p.Amount
		p.AmountDue = 0
	}
	if t.PaymentID != "" {
		id := t.PaymentID
		p.PaymentID = &id
	}
	s.payments[t.OrderID] = p
	return true, nil
}

func (s *memStore) payment(orderID string) model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[orderID]
}

func (s *memStore) CreateBulk(ctx context.Context, tickets []model.Ticket) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	out := make([]model.Ticket, len(tickets))
	for i, t := range tickets {
		s.nextID++
		t.ID = s.nextID
		t.CreatedAt = time.Now()
		s.tickets = append(s.tickets, t)
		out[i] = t
	}
	s.onRollback(ctx, func() {
		inserted := map[uint64]bool{}
		for _, t := range out {
			inserted[t.ID] = true
		}
		kept := s.tickets[:0]
		for _, t := range s.tickets {
			if !inserted[t.ID] {
				kept = append(kept, t)
			}
		}
		s.tickets = kept
	})
	return out, nil
}

func (s *memStore) filter(keep func(model.Ticket) bool) []model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *memStore) ListByUser(_ context.Context, userID uint64) ([]model.Ticket, error) {
	return s.filter(func(t model.Ticket) bool { return t.UserID == userID }), nil
}

func (s *memStore) ListByEvent(_ context.Context, eventID uint64) ([]model.Ticket, error) {
	return s.filter(func(t model.Ticket) bool { return t.EventID == eventID }), nil
}

func (s *memStore) ListByOrder(_ context.Context, orderID string) ([]model.Ticket, error) {
	return s.filter(func(t model.Ticket) bool { return t.OrderID != nil && *t.OrderID == orderID }), nil
}

func (s *memStore) GetByCode(_ context.Context, code string) (model.Ticket, error) {
	list := s.filter(func(t model.Ticket) bool { return t.Code == code })
	if len(list) == 0 {
		return model.Ticket{}, repository.ErrNotFound
	}
	return list[0], nil
}

func (s *memStore) CheckIn(_ context.Context, id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		if s.tickets[i].ID != id {
			continue
		}
		if s.tickets[i].CheckedInAt != nil {
			return false, nil
		}
		now := time.Now()
		s.tickets[i].CheckedInAt = &now
		return true, nil
	}
	return false, nil
}

func (s *memStore) ticketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *memStore) bookings() []booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]booking(nil), s.booked...)
}

type eventStore struct{ *memStore }

func (s eventStore) GetByID(_ context.Context, id uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, repository.ErrNotFound
	}
	return ev, nil
}

func (s eventStore) GetByIDs(_ context.Context, ids []uint64) (map[uint64]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint64]model.Event{}
	for _, id := range ids {
		if ev, ok := s.events[id]; ok {
			out[id] = ev
		}
	}
	return out, nil
}

type userStore struct{ *memStore }

func (s userStore) GetByIDs(_ context.Context, ids []uint64) (map[uint64]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[uint64]model.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s userStore) AppendBookedEvent(ctx context.Context, userID, eventID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	b := booking{userID, eventID}
	s.booked = append(s.booked, b)
	// Equal rows are interchangeable, so dropping the last one undoes this append.
	s.onRollback(ctx, func() {
		for i := len(s.booked) - 1; i >= 0; i-- {
			if s.booked[i] == b {
				s.booked = append(s.booked[:i], s.booked[i+1:]...)
				return
			}
		}
	})
	return nil
}

// fakeGateway plays the provider.  Orders get sequential ids; payments
// are looked up in the payments map.
type fakeGateway struct {
	mu        sync.Mutex
	orders    []gateway.OrderRequest
	payments  map[string]gateway.Payment
	createErr error
	fetchErr  error
	fetches   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: map[string]gateway.Payment{}}
}

func (g *fakeGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return gateway.Order{}, g.createErr
	}
	g.orders = append(g.orders, req)
	return gateway.Order{
		ID:        fmt.Sprintf("order_%d", len(g.orders)),
		Amount:    req.Amount,
		AmountDue: req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    "created",
	}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, id string) (gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetches++
	if g.fetchErr != nil {
		return gateway.Payment{}, g.fetchErr
	}
	p, ok := g.payments[id]
	if !ok {
		return gateway.Payment{}, errors.New("payment not found")
	}
	return p, nil
}

func (g *fakeGateway) setPayment(p gateway.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

type fakeNotifier struct {
	mu         sync.Mutex
	confirmed  []queue.BookingConfirmedEvent
	reconciled []queue.PaymentReconciledEvent
	err        error
	// hang makes every publish wait for its context, like an
	// unreachable broker.
	hang      bool
	deadlines []time.Time
}

func (n *fakeNotifier) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	n.mu.Lock()
	n.confirmed = append(n.confirmed, ev)
	n.mu.Unlock()
	return n.wait(ctx)
}

func (n *fakeNotifier) PublishPaymentReconciled(ctx context.Context, ev queue.PaymentReconciledEvent) error {
	n.mu.Lock()
	n.reconciled = append(n.reconciled, ev)
	n.mu.Unlock()
	return n.wait(ctx)
}

func (n *fakeNotifier) wait(ctx context.Context) error {
	n.mu.Lock()
	hang, err := n.hang, n.err
	if d, ok := ctx.Deadline(); ok {
		n.deadlines = append(n.deadlines, d)
	}
	n.mu.Unlock()
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

type recordingObserver struct {
	mu      sync.Mutex
	reports []WebhookReport
}

func (o *recordingObserver) ObserveWebhook(_ context.Context, rep WebhookReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, rep)
}
