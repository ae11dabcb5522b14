package activity

import "time"

// Event is one append-only entry in the dashboard's activity feed.
//
// Events are never updated or deleted. Writing them is best-effort: callers
// log a failed append and carry on.
type Event struct {
	ID   string `json:"id" db:"id"`
	Type Type   `json:"type" db:"type"`

	// Message is a short human-readable line for the feed.
	Message string `json:"message" db:"message"`

	OrderNumber string `json:"order_number,omitempty" db:"order_number"`
	CallID      string `json:"call_sid,omitempty" db:"call_sid"`

	// Metadata is optional JSON.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Type string

const (
	TypeOrderCreated    Type = "order_created"
	TypeStatusChanged   Type = "status_changed"
	TypePaymentReceived Type = "payment_received"
	TypeCallPlaced      Type = "call_placed"
)
