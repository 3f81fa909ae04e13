// Package metrics declares the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coursehub",
		Name:      "sessions_active",
		Help:      "Number of learning sessions currently open",
	})

	sessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "coursehub",
		Name:      "sessions_closed_total",
		Help:      "Total learning sessions closed",
	})

	interactionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursehub",
			Name:      "interactions_recorded_total",
			Help:      "Interactions appended to active sessions, by kind",
		},
		[]string{"kind"},
	)

	sessionOverflow = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursehub",
			Name:      "session_overflow_total",
			Help:      "Items dropped because the session reached its size limit, by item",
		},
		[]string{"item"},
	)

	learningEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursehub",
			Name:      "learning_events_total",
			Help:      "Learning events handled, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	telemetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coursehub",
			Name:      "telemetry_failures_total",
			Help:      "Swallowed persistence failures of telemetry writes, by operation",
		},
		[]string{"op"},
	)
)

func SessionOpened() {
	sessionsActive.Inc()
}

func SessionClosed() {
	sessionsActive.Dec()
	sessionsClosed.Inc()
}

func IncInteraction(kind string) {
	interactionsRecorded.WithLabelValues(kind).Inc()
}

func IncSessionOverflow(item string) {
	sessionOverflow.WithLabelValues(item).Inc()
}

// IncLearningEvent counts a learning event by outcome: "queued",
// "applied", "failed", "dropped" or "rejected".
func IncLearningEvent(kind, outcome string) {
	learningEvents.WithLabelValues(kind, outcome).Inc()
}

func IncTelemetryFailure(op string) {
	telemetryFailures.WithLabelValues(op).Inc()
}
