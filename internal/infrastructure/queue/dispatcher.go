package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/localkart/localkart-api/internal/api/metrics"
	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
)

const (
	defaultWorkers        = 4
	channelBuffer         = 256
	defaultPublishTimeout = 3 * time.Second
)

// Dispatcher moves domain events off the request path. Events are sharded
// across a fixed set of workers by hashing Event.Key, so events for the same
// user or order are published in the order they were enqueued.
type Dispatcher struct {
	workers   []chan domain.Event
	publisher ports.EventPublisher
	log       zerolog.Logger

	publishTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:        make([]chan domain.Event, numWorkers),
		publisher:      publisher,
		log:            log,
		publishTimeout: defaultPublishTimeout,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.Event, channelBuffer)
	}
	return d
}

// Start launches the workers. Cancelling ctx stops them without draining.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands the event to the worker that owns its key. It never blocks:
// when that worker's buffer is full, or the dispatcher is stopped, the event
// is dropped and counted.
func (d *Dispatcher) Enqueue(event domain.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.EventsDroppedTotal.WithLabelValues("stopped").Inc()
		d.log.Warn().Str("type", event.Type).Str("key", event.Key).Msg("dispatcher stopped, event dropped")
		return
	}

	idx := d.shardIndex(event.Key)
	select {
	case d.workers[idx] <- event:
		metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.EventsDroppedTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().Str("type", event.Type).Str("key", event.Key).Int("worker_id", idx).Msg("event queue full, event dropped")
	}
}

// Stop refuses new events, lets the workers drain what is queued and waits
// for them until ctx expires.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.Event) {
	defer d.wg.Done()
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.publish(event, id)
		}
	}
}

func (d *Dispatcher) publish(event domain.Event, workerID int) {
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(event.Type, "error").Inc()
		d.log.Error().Err(err).
			Str("type", event.Type).
			Str("key", event.Key).
			Str("request_id", event.RequestID).
			Int("worker_id", workerID).
			Msg("event publish failed")
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(event.Type, "success").Inc()
}
