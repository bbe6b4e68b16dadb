package service

import (
	"context"

	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/model"
)

// WebhookOutcome classifies a webhook delivery.
type WebhookOutcome string

const (
	WebhookCaptured  WebhookOutcome = "captured"
	WebhookFailed    WebhookOutcome = "failed"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookRejected  WebhookOutcome = "rejected"
	WebhookIgnored   WebhookOutcome = "ignored"
	WebhookError     WebhookOutcome = "error"
)

// WebhookReport describes what a delivery did.  It is never turned into an
// HTTP error; the provider always gets a success response.
type WebhookReport struct {
	Outcome        WebhookOutcome
	Event          string
	OrderID        string
	PaymentID      string
	Amount         int64
	SignatureValid bool
	Tickets        int
	Err            error
}

// HandleWebhook authenticates and applies one provider delivery.  body must
// be the exact bytes received.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) WebhookReport {
	rep := r.handleWebhook(ctx, body, signature)
	r.observer.ObserveWebhook(ctx, rep)
	return rep
}

func (r *Reconciler) handleWebhook(ctx context.Context, body []byte, signature string) WebhookReport {
	rep := WebhookReport{
		SignatureValid: gateway.VerifySignature(body, signature, r.cfg.WebhookSecret),
	}

	ev, err := gateway.ParseWebhook(body)
	if err != nil {
		rep.Err = err
		if rep.SignatureValid {
			rep.Outcome = WebhookError
		} else {
			rep.Outcome = WebhookRejected
		}
		return rep
	}
	ent := ev.Entity()
	rep.Event = ev.Event
	rep.OrderID = ent.OrderID
	rep.PaymentID = ent.ID
	rep.Amount = ent.Amount

	if !rep.SignatureValid && r.cfg.RejectBadSignature {
		rep.Outcome = WebhookRejected
		rep.Err = newErr(ErrUnauthorized, "webhook signature mismatch", nil)
		return rep
	}
	if !ev.Handled() {
		rep.Outcome = WebhookIgnored
		return rep
	}

	// A bad signature never captures.
	to := model.PaymentFailed
	if rep.SignatureValid && ent.Status == gateway.StatusCaptured {
		to = model.PaymentCaptured
	}
	out, err := r.settle(ctx, model.Transition{
		OrderID:   ent.OrderID,
		Amount:    ent.Amount,
		To:        to,
		PaymentID: ent.ID,
	}, SourceWebhook)
	switch {
	case err != nil:
		rep.Outcome = WebhookError
		rep.Err = err
	case out.AlreadyReconciled:
		rep.Outcome = WebhookDuplicate
	case to == model.PaymentCaptured:
		rep.Outcome = WebhookCaptured
		rep.Tickets = len(out.Tickets)
	default:
		rep.Outcome = WebhookFailed
	}
	return rep
}
