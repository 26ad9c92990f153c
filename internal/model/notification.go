package model

import "time"

// Notification records an event the user has not yet seen, such as new
// mail arriving during a sync.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	EmailID   string    `json:"email_id" db:"email_id"`
	AccountID string    `json:"account_id" db:"account_id"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
