package ports

import (
	"context"

	"github.com/localkart/localkart-api/internal/core/domain"
)

// EventSink accepts domain events for asynchronous delivery. Enqueue must not
// block the caller on broker I/O.
type EventSink interface {
	Enqueue(event domain.Event)
}

// EventPublisher delivers a single event to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}
