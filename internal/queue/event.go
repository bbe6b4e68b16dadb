// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names.  Both are durable.
const (
	BookingConfirmedQueue  = "booking.confirmed"
	PaymentReconciledQueue = "payment.reconciled"
)

// BookingConfirmedEvent is published after tickets are issued, for free
// bookings and for captured payments alike.  It contains enough
// information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type BookingConfirmedEvent struct {
	UserID      uint64   `json:"user_id"`
	EventID     uint64   `json:"event_id"`
	EventTitle  string   `json:"event_title,omitempty"`
	OrderID     string   `json:"order_id,omitempty"`
	AmountPaid  int64    `json:"amount_paid"`
	Currency    string   `json:"currency,omitempty"`
	TicketCodes []string `json:"tickets"`
	Source      string   `json:"source"` // free | client_verify | webhook
	ConfirmedAt string   `json:"confirmed_at"`
}

// PaymentReconciledEvent is published whenever a payment leaves pending,
// whichever entry point won the transition.
type PaymentReconciledEvent struct {
	OrderID      string `json:"order_id"`
	PaymentID    string `json:"payment_id,omitempty"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	UserID       uint64 `json:"user_id"`
	EventID      uint64 `json:"event_id"`
	Source       string `json:"source"`
	ReconciledAt string `json:"reconciled_at"`
}
