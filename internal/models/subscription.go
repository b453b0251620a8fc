package models

import "time"

const (
	FreqHourly = "hourly"
	FreqDaily  = "daily"
)

// Subscription is the persisted record. Tokens are unique across the whole
// table; at most one row exists per (email, city).
type Subscription struct {
	ID                int
	Email             string
	City              string
	Frequency         string
	Confirmed         bool
	ConfirmationToken string
	UnsubscribeToken  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
