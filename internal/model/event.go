package model

import "time"

// Event is the subset of an event that booking needs.  Price is in major
// currency units (rupees); the intent service converts to paise.
type Event struct {
	ID          uint64     `json:"_id"`
	OrganiserID uint64     `json:"organiserId"`
	Title       string     `json:"title"`
	IsFree      bool       `json:"isFree"`
	Price       int64      `json:"price"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
