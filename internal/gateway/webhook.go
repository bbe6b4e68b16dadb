package gateway

import (
	"encoding/json"
	"fmt"
)

// Webhook event names the reconciler acts on.  Anything else (for example
// payment.authorized, which precedes an auto-capture) is acknowledged and
// ignored.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the subset of the provider envelope the reconciler reads:
//
//	{"event": "...", "payload": {"payment": {"entity": {"id", "order_id", "amount", "status"}}}}
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookPayment is payload.payment.entity.
type WebhookPayment struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

// Handled reports whether the envelope names an event the reconciler
// settles on.  An envelope without an event name is treated as handled so
// that bare payment payloads still reconcile.
func (w WebhookEvent) Handled() bool {
	switch w.Event {
	case "", EventPaymentCaptured, EventPaymentFailed, EventOrderPaid:
		return true
	}
	return false
}

// Entity returns payload.payment.entity.
func (w WebhookEvent) Entity() WebhookPayment { return w.Payload.Payment.Entity }

// ParseWebhook decodes a webhook body.  It fails when the payment entity
// lacks an order id, since nothing can be reconciled without it.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("gateway: decode webhook: %w", err)
	}
	if ev.Entity().OrderID == "" {
		return WebhookEvent{}, fmt.Errorf("gateway: webhook without payment.entity.order_id")
	}
	return ev, nil
}
