package model

import "time"

// Ticket is a single admission issued to a user for an event.  Paid tickets
// carry the provider order id that paid for them; free tickets leave it nil.
type Ticket struct {
	ID          uint64     `json:"id"`
	Code        string     `json:"code"`
	UserID      uint64     `json:"userId"`
	EventID     uint64     `json:"eventId"`
	OrderID     *string    `json:"orderId,omitempty"`
	CheckedInAt *time.Time `json:"checkedInAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
