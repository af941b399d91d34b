package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/localkart/localkart-api/internal/core/domain"
)

const defaultOrderTTL = 24 * time.Hour

// transitionScript sets KEYS[1] to ARGV[2] only while it still holds ARGV[1].
var transitionScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "EX", ARGV[3])
	return 1
end
return 0
`)

// OrderStateStore keeps the local status of gateway orders.
// Key format: payment:order:<order_id>
type OrderStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOrderStateStore(client *redis.Client) *OrderStateStore {
	return &OrderStateStore{client: client, ttl: defaultOrderTTL}
}

// Create records orderID as created. An existing entry is left untouched.
func (s *OrderStateStore) Create(ctx context.Context, orderID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.client.SetNX(ctx, key(orderID), string(domain.PaymentCreated), ttl).Err(); err != nil {
		return fmt.Errorf("order state create: %w", err)
	}
	return nil
}

func (s *OrderStateStore) Status(ctx context.Context, orderID string) (domain.PaymentStatus, error) {
	v, err := s.client.Get(ctx, key(orderID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrOrderNotFound
		}
		return "", fmt.Errorf("order state get: %w", err)
	}
	return domain.PaymentStatus(v), nil
}

// Transition moves orderID from -> to atomically. It reports false when the
// stored status is no longer from. Transitions the lifecycle does not allow
// are rejected without touching Redis.
func (s *OrderStateStore) Transition(ctx context.Context, orderID string, from, to domain.PaymentStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("order state: transition %s -> %s not allowed", from, to)
	}

	n, err := transitionScript.Run(ctx, s.client,
		[]string{key(orderID)},
		string(from), string(to), int64(s.ttl/time.Second),
	).Int()
	if err != nil {
		return false, fmt.Errorf("order state transition: %w", err)
	}
	return n == 1, nil
}

func key(orderID string) string {
	return "payment:order:" + orderID
}
