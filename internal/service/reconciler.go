package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Source names the entry point that settled a payment.
type Source string

const (
	SourceClient  Source = "client_verify"
	SourceWebhook Source = "webhook"
)

// ReconcilerConfig is injected at construction.
type ReconcilerConfig struct {
	// WebhookSecret keys the HMAC over webhook bodies.
	WebhookSecret string
	// VerifyWithProvider makes client-claimed captures be confirmed with
	// the provider before tickets are issued.
	VerifyWithProvider bool
	// RejectBadSignature leaves the payment untouched when a webhook's
	// signature does not match.  By default such a delivery fails the
	// payment.
	RejectBadSignature bool
}

// Outcome is the result of a settle attempt.  AlreadyReconciled is set
// when another call had already moved the payment out of pending; Tickets
// then holds the tickets that call issued, if any.
type Outcome struct {
	Payment           model.Payment  `json:"payment"`
	Tickets           []model.Ticket `json:"tickets"`
	AlreadyReconciled bool           `json:"alreadyReconciled"`
}

// VerifyRequest is a client's claim about a payment it completed.
type VerifyRequest struct {
	UserID    uint64
	PaymentID string
	OrderID   string
	Amount    int64
	Status    string
}

// Reconciler settles pending payments from client verify calls and
// provider webhooks.  Both paths go through the same guarded transition,
// so tickets are issued at most once per payment.
type Reconciler struct {
	cfg      ReconcilerConfig
	tx       Transactor
	payments PaymentStore
	tickets  TicketStore
	users    UserStore
	issuer   TicketIssuer
	gateway  PaymentGateway
	notifier Notifier
	observer WebhookObserver
	log      *zap.Logger
}

// ReconcilerDeps groups the collaborators of a Reconciler.  Notifier and
// Observer may be nil.
type ReconcilerDeps struct {
	Tx       Transactor
	Payments PaymentStore
	Tickets  TicketStore
	Users    UserStore
	Issuer   TicketIssuer
	Gateway  PaymentGateway
	Notifier Notifier
	Observer WebhookObserver
}

func NewReconciler(cfg ReconcilerConfig, deps ReconcilerDeps, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Reconciler{
		cfg:      cfg,
		tx:       deps.Tx,
		payments: deps.Payments,
		tickets:  deps.Tickets,
		users:    deps.Users,
		issuer:   deps.Issuer,
		gateway:  deps.Gateway,
		notifier: deps.Notifier,
		observer: deps.Observer,
		log:      log,
	}
	if r.notifier == nil {
		r.notifier = nopNotifier{}
	}
	if r.observer == nil {
		r.observer = LogObserver{Log: log}
	}
	return r
}

// VerifyClient settles the payment a client claims to have completed.
func (r *Reconciler) VerifyClient(ctx context.Context, req VerifyRequest) (Outcome, error) {
	if req.OrderID == "" || req.Amount <= 0 {
		return Outcome{}, newErr(ErrValidation, "order_id and amount are required", nil)
	}
	to := model.PaymentStatus(req.Status)
	if to != model.PaymentCaptured && to != model.PaymentFailed {
		return Outcome{}, newErr(ErrValidation, `status must be "captured" or "failed"`, nil)
	}

	p, err := r.payments.GetByOrder(ctx, req.OrderID, req.Amount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Outcome{}, newErr(ErrNotFound, "payment not found", err)
		}
		return Outcome{}, newErr(ErrPersistence, "could not load payment", err)
	}
	if p.UserID != req.UserID {
		return Outcome{}, newErr(ErrForbidden, "payment belongs to another user", nil)
	}

	if to == model.PaymentCaptured && r.cfg.VerifyWithProvider && p.Status == model.PaymentPending {
		to, err = r.confirmWithProvider(ctx, req)
		if err != nil {
			return Outcome{Payment: p}, err
		}
	}

	out, err := r.settle(ctx, model.Transition{
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		To:        to,
		PaymentID: req.PaymentID,
	}, SourceClient)
	if err != nil {
		return out, err
	}
	if out.Payment.Status == model.PaymentFailed {
		return out, newErr(ErrPaymentFailed, "payment failed", nil)
	}
	return out, nil
}

// confirmWithProvider returns the status the provider reports for a
// client-claimed capture.
func (r *Reconciler) confirmWithProvider(ctx context.Context, req VerifyRequest) (model.PaymentStatus, error) {
	if req.PaymentID == "" {
		return "", newErr(ErrValidation, "payment_id is required", nil)
	}
	gp, err := r.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		r.log.Error("provider payment lookup failed",
			zap.String("order_id", req.OrderID), zap.String("payment_id", req.PaymentID), zap.Error(err))
		return "", newErr(ErrUpstream, "could not confirm payment with provider", err)
	}
	if gp.OrderID != req.OrderID || gp.Amount != req.Amount {
		r.log.Warn("client payment claim does not match provider",
			zap.String("order_id", req.OrderID), zap.String("provider_order_id", gp.OrderID),
			zap.Int64("amount", req.Amount), zap.Int64("provider_amount", gp.Amount))
		return "", newErr(ErrValidation, "payment does not match order", nil)
	}
	switch gp.Status {
	case gateway.StatusCaptured:
		return model.PaymentCaptured, nil
	case gateway.StatusFailed:
		return model.PaymentFailed, nil
	default:
		return "", newErr(ErrPaymentPending, "payment not captured yet", nil)
	}
}

// settle applies t and, if this call won a capture, issues the tickets and
// records the booking in the same transaction.  A failure anywhere rolls
// the payment back to pending.
func (r *Reconciler) settle(ctx context.Context, t model.Transition, src Source) (Outcome, error) {
	var out Outcome
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		won, err := r.payments.Transition(ctx, t)
		if err != nil {
			return err
		}
		out.Payment, err = r.payments.GetByOrder(ctx, t.OrderID, t.Amount)
		if err != nil {
			return err
		}
		if !won {
			out.AlreadyReconciled = true
			return nil
		}
		if t.To != model.PaymentCaptured {
			return nil
		}
		p := out.Payment
		out.Tickets, err = r.issuer.Issue(ctx, IssueRequest{
			Count:   p.TicketCount,
			UserID:  p.UserID,
			EventID: p.EventID,
			OrderID: p.OrderID,
		})
		if err != nil {
			return err
		}
		return r.users.AppendBookedEvent(ctx, p.UserID, p.EventID)
	})

	log := r.log.With(
		zap.String("order_id", t.OrderID),
		zap.String("source", string(src)),
		zap.String("target", string(t.To)),
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Outcome{}, newErr(ErrNotFound, "payment not found", err)
		}
		log.Error("payment reconciliation rolled back", zap.Error(err))
		return Outcome{}, newErr(ErrPersistence, "could not reconcile payment", err)
	}

	if out.AlreadyReconciled {
		log.Info("payment already reconciled", zap.String("status", string(out.Payment.Status)))
		if out.Payment.Status == model.PaymentCaptured {
			tickets, err := r.tickets.ListByOrder(ctx, t.OrderID)
			if err != nil {
				log.Warn("could not load previously issued tickets", zap.Error(err))
			}
			out.Tickets = tickets
		}
		return out, nil
	}

	log.Info("payment reconciled",
		zap.String("status", string(out.Payment.Status)),
		zap.Int("tickets", len(out.Tickets)),
	)
	r.announce(ctx, out, src)
	return out, nil
}

func (r *Reconciler) announce(ctx context.Context, out Outcome, src Source) {
	p := out.Payment
	now := time.Now().UTC().Format(time.RFC3339)
	paymentID := ""
	if p.PaymentID != nil {
		paymentID = *p.PaymentID
	}
	// Both messages share one publish budget.
	publish(ctx, r.log, func(ctx context.Context) error {
		err := r.notifier.PublishPaymentReconciled(ctx, queue.PaymentReconciledEvent{
			OrderID:      p.OrderID,
			PaymentID:    paymentID,
			Status:       string(p.Status),
			Amount:       p.Amount,
			UserID:       p.UserID,
			EventID:      p.EventID,
			Source:       string(src),
			ReconciledAt: now,
		})
		if p.Status != model.PaymentCaptured {
			return err
		}
		return errors.Join(err, r.notifier.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
			UserID:      p.UserID,
			EventID:     p.EventID,
			OrderID:     p.OrderID,
			AmountPaid:  p.AmountPaid,
			Currency:    p.Currency,
			TicketCodes: codes(out.Tickets),
			Source:      string(src),
			ConfirmedAt: now,
		}))
	})
}
