package domain

import "time"

// PaymentStatus is the local view of a gateway order's lifecycle.
type PaymentStatus string

const (
	PaymentCreated             PaymentStatus = "created"
	PaymentVerificationPending PaymentStatus = "verification_pending"
	PaymentVerified            PaymentStatus = "verified"
	PaymentRejected            PaymentStatus = "rejected"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "INR"

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentCreated:             {PaymentVerificationPending},
	PaymentVerificationPending: {PaymentVerified, PaymentRejected},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentVerified || s == PaymentRejected
}

// PaymentOrder is what the gateway hands back after an order is opened.
type PaymentOrder struct {
	ID        string
	Amount    int64 // minor units
	Currency  string
	Receipt   string
	Status    string
	CreatedAt time.Time
}
