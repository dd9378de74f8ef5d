// Package metrics defines and registers all custom Prometheus metrics for the
// rules API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rules"

// ── Session metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts successfully created accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshTotal counts refresh token exchanges.
// Label:
//   - result: "rotated" on success, otherwise "expired", "mismatch", or "invalid"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of refresh token exchanges, by result.",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsRecordedTotal counts rule events logged by users.
// Label:
//   - type: "respected" or "broken"
var EventsRecordedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_recorded_total",
		Help:      "Total number of rule events recorded, by event type.",
	},
	[]string{"type"},
)

// ── Stats worker metrics ──────────────────────────────────────────────────────

// StatsQueueDepth tracks the number of recompute jobs waiting per worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var StatsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stats_queue_depth",
		Help:      "Current number of recompute jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// StatsRecomputeDuration measures how long one rule counter recompute takes.
// Label:
//   - result: "ok" or "error"
var StatsRecomputeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stats_recompute_duration_seconds",
		Help:      "Duration of a per-rule stats recompute, from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
