package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
)

const (
	defaultGatewayTimeout = 5 * time.Second
	// OrderStateTTL bounds how long the local order reference is kept.
	OrderStateTTL = 24 * time.Hour
)

// PaymentConfig holds the gateway credentials the service needs.
type PaymentConfig struct {
	KeyID          string
	KeySecret      string
	Currency       string
	GatewayTimeout time.Duration
}

type paymentService struct {
	gateway  ports.PaymentGateway
	orders   ports.OrderStateStore
	validate StructValidator
	events   ports.EventSink
	cfg      PaymentConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewPaymentService returns a PaymentService implementation. orders and
// events may be nil.
func NewPaymentService(
	gateway ports.PaymentGateway,
	orders ports.OrderStateStore,
	validate StructValidator,
	events ports.EventSink,
	cfg PaymentConfig,
	log zerolog.Logger,
) ports.PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = domain.DefaultCurrency
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	return &paymentService{
		gateway:  gateway,
		orders:   orders,
		validate: validate,
		events:   events,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// CreateOrder opens a gateway order for the given amount in major units.
func (s *paymentService) CreateOrder(ctx context.Context, in ports.CreateOrderInput) (*ports.OrderResult, error) {
	minor, err := domain.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}

	req := ports.GatewayOrderRequest{
		Amount:   minor,
		Currency: s.cfg.Currency,
		Receipt:  "rcpt_" + strconv.FormatInt(s.now().UnixNano(), 10),
	}
	if in.UserID != "" {
		req.Notes = map[string]string{"user_id": in.UserID}
	}

	gctx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	order, err := s.gateway.CreateOrder(gctx, req)
	if err != nil {
		s.log.Error().Err(err).Str("receipt", req.Receipt).Int64("amount", minor).Msg("gateway order failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}

	if s.orders != nil {
		if err := s.orders.Create(ctx, order.ID, OrderStateTTL); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to record order state")
		}
	}

	currency := order.Currency
	if currency == "" {
		currency = req.Currency
	}
	amount := order.Amount
	if amount == 0 {
		amount = minor
	}

	s.log.Info().Str("order_id", order.ID).Int64("amount", amount).Str("currency", currency).Msg("payment order created")
	return &ports.OrderResult{
		OrderID:  order.ID,
		Currency: currency,
		Amount:   amount,
		Key:      s.cfg.KeyID,
	}, nil
}

// VerifySignature checks the gateway callback signature. A mismatch is a
// normal false result, not an error.
func (s *paymentService) VerifySignature(ctx context.Context, in ports.VerifyInput) (bool, error) {
	if err := s.validate.Struct(in); err != nil {
		return false, err
	}

	expected := Sign(s.cfg.KeySecret, in.OrderID, in.PaymentID)
	ok := hmac.Equal([]byte(expected), []byte(in.Signature))

	s.recordOutcome(ctx, in.OrderID, ok)

	eventType := domain.EventPaymentRejected
	if ok {
		eventType = domain.EventPaymentVerified
	}
	if s.events != nil {
		s.events.Enqueue(domain.Event{
			Type:       eventType,
			Key:        in.OrderID,
			OccurredAt: s.now().UTC(),
			RequestID:  in.RequestID,
			Payload: map[string]any{
				"order_id":   in.OrderID,
				"payment_id": in.PaymentID,
			},
		})
	}

	s.log.Info().Str("order_id", in.OrderID).Str("payment_id", in.PaymentID).Bool("verified", ok).Msg("payment signature checked")
	return ok, nil
}

// recordOutcome walks the order through verification_pending to its terminal
// state. Failures here never change the verification result.
func (s *paymentService) recordOutcome(ctx context.Context, orderID string, ok bool) {
	if s.orders == nil {
		return
	}
	log := s.log.With().Str("order_id", orderID).Logger()

	status, err := s.orders.Status(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Debug().Msg("no local state for order")
		} else {
			log.Warn().Err(err).Msg("failed to read order state")
		}
		return
	}
	if status.Terminal() {
		log.Debug().Str("status", string(status)).Msg("order already settled")
		return
	}

	if status == domain.PaymentCreated {
		if _, err := s.orders.Transition(ctx, orderID, domain.PaymentCreated, domain.PaymentVerificationPending); err != nil {
			log.Warn().Err(err).Msg("failed to mark order pending")
			return
		}
	}

	final := domain.PaymentRejected
	if ok {
		final = domain.PaymentVerified
	}
	moved, err := s.orders.Transition(ctx, orderID, domain.PaymentVerificationPending, final)
	if err != nil {
		log.Warn().Err(err).Msg("failed to settle order state")
		return
	}
	if !moved {
		log.Debug().Str("status", string(final)).Msg("order state changed concurrently")
	}
}

// Sign computes hex(HMAC-SHA256(secret, orderID|paymentID)), the signature the
// gateway attaches to a successful checkout.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
