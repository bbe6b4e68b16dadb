package model

import "time"

// PaymentStatus is the lifecycle state of a payment attempt.  pending is the
// only state that can be left; captured and failed are terminal.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentCaptured PaymentStatus = "captured"
	PaymentFailed   PaymentStatus = "failed"
)

// Terminal reports whether no transition may leave s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCaptured || s == PaymentFailed
}

// Payment records one payment attempt against a provider order.  Rows are
// created pending by the intent service, mutated only by the reconciler and
// never deleted; the table doubles as the audit log of every attempt.
//
// Fields:
//  OrderID     – provider order id, the reconciliation key (with Amount).
//  PaymentID   – provider payment id; nil until a confirmation arrives.
//  Amount      – order total in minor units (paise).
//  AmountPaid  – 0 while pending, Amount once captured.
//  AmountDue   – Amount while pending, 0 once captured.
//  Receipt     – token generated at intent creation, unique per attempt.
//  TicketCount – number of tickets to issue on capture.
type Payment struct {
	ID          uint64        `json:"id"`
	OrderID     string        `json:"orderId"`
	PaymentID   *string       `json:"paymentId"`
	Amount      int64         `json:"amount"`
	AmountPaid  int64         `json:"amountPaid"`
	AmountDue   int64         `json:"amountDue"`
	Currency    string        `json:"currency"`
	Receipt     string        `json:"receipt"`
	Status      PaymentStatus `json:"status"`
	UserID      uint64        `json:"userId"`
	EventID     uint64        `json:"eventId"`
	TicketCount int           `json:"ticketCount"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Transition describes a guarded pending → To update of the payment
// identified by (OrderID, Amount).
type Transition struct {
	OrderID   string
	Amount    int64
	To        PaymentStatus
	PaymentID string
}
