package ports

import (
	"context"
	"time"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// GatewayOrderRequest is sent to the payment gateway when opening an order.
type GatewayOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// PaymentGateway is the external payment provider.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (*domain.PaymentOrder, error)
}

// OrderStateStore holds the local reference to gateway orders.
type OrderStateStore interface {
	// Create records a new order in the created state. It is a no-op when the
	// order is already known.
	Create(ctx context.Context, orderID string, ttl time.Duration) error
	// Status returns domain.ErrOrderNotFound for unknown orders.
	Status(ctx context.Context, orderID string) (domain.PaymentStatus, error)
	// Transition atomically moves from -> to and reports whether it happened.
	Transition(ctx context.Context, orderID string, from, to domain.PaymentStatus) (bool, error)
}

// CreateOrderInput carries the raw client amount; parsing is the service's job.
type CreateOrderInput struct {
	Amount any
	UserID string
}

// OrderResult is returned to the client to start the checkout flow.
type OrderResult struct {
	OrderID  string
	Currency string
	Amount   int64
	Key      string
}

// VerifyInput carries the gateway callback fields.
type VerifyInput struct {
	OrderID   string `validate:"required"`
	PaymentID string `validate:"required"`
	Signature string `validate:"required"`
	RequestID string
}

type PaymentService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*OrderResult, error)
	VerifySignature(ctx context.Context, in VerifyInput) (bool, error)
}
