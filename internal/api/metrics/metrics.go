// Package metrics defines and registers all custom Prometheus metrics for the
// chat relay. It is the single source of truth for metric names, labels, and
// help strings; metrics register with the default registry at import time via
// promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chatrelay"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsLive tracks the current number of live sessions in the registry.
var SessionsLive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_live",
		Help:      "Current number of live chat sessions.",
	},
)

// SessionsAdmittedTotal counts sessions admitted to the registry.
var SessionsAdmittedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_admitted_total",
		Help:      "Total number of sessions admitted since start.",
	},
)

// SessionsEvictedTotal counts sessions evicted by the broadcaster because
// their outbound buffer was full or their transport failed mid-fan-out.
var SessionsEvictedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_evicted_total",
		Help:      "Total number of sessions evicted for failed delivery.",
	},
)

// ── Message metrics ───────────────────────────────────────────────────────────

// MessagesBroadcastTotal counts messages fanned out to the live set.
var MessagesBroadcastTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_broadcast_total",
		Help:      "Total number of chat messages broadcast.",
	},
)

// MessagesDroppedTotal counts inbound chat events rejected before fan-out.
// Label:
//   - reason: "unauthenticated" or "queue_full"
var MessagesDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_dropped_total",
		Help:      "Total number of inbound chat events dropped, by reason.",
	},
	[]string{"reason"},
)

// PersistFailuresTotal counts message store writes that failed. Persistence
// is best-effort, so these never suppress a broadcast.
var PersistFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "Total number of failed chat message persistence attempts.",
	},
)

// BroadcastDuration measures one stamp → persist → fan-out pass.
var BroadcastDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "broadcast_duration_seconds",
		Help:      "Duration of a single message broadcast pass.",
		Buckets:   prometheus.DefBuckets,
	},
)
