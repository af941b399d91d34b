package domain

import "time"

// Event types published to the broker.
const (
	EventUserRegistered  = "user.registered"
	EventPaymentVerified = "payment.verified"
	EventPaymentRejected = "payment.rejected"
)

// Event is a fact emitted after a state change. Key groups events that must be
// delivered in order (user id, order id).
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurred_at"`
	RequestID  string         `json:"-"`
	Payload    map[string]any `json:"payload"`
}
