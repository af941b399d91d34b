// Package metrics defines the custom Prometheus metrics of the LocalKart API.
// All metrics live in the default registry and are exposed on /metrics next to
// the HTTP metrics recorded by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "localkart"

// ── Credential metrics ────────────────────────────────────────────────────────

// SignupsTotal counts registration attempts.
// Label:
//   - result: "success", "conflict", "invalid" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "invalid" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Payment metrics ───────────────────────────────────────────────────────────

// PaymentOrdersTotal counts order creation attempts.
// Label:
//   - result: "success", "invalid" or "gateway_error"
var PaymentOrdersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_orders_total",
		Help:      "Total number of payment order requests, by result.",
	},
	[]string{"result"},
)

// PaymentVerificationsTotal counts signature checks.
// Label:
//   - result: "verified", "rejected" or "invalid"
var PaymentVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_total",
		Help:      "Total number of payment signature verifications, by result.",
	},
	[]string{"result"},
)

// GatewayRequestDuration measures payment gateway round trips.
// Label:
//   - outcome: "success" or "error"
var GatewayRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Duration of payment gateway order requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"outcome"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishedTotal counts broker publish attempts.
// Labels:
//   - type: the domain event type (e.g. "user.registered")
//   - result: "success" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of domain events handed to the broker, by type and result.",
	},
	[]string{"type", "result"},
)

// EventsDroppedTotal counts events the dispatcher could not accept.
// Label:
//   - reason: "queue_full" or "stopped"
var EventsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of domain events dropped before publishing, by reason.",
	},
	[]string{"reason"},
)

// EventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
