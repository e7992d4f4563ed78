// Package metrics exposes the prometheus counters for the delivery workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zapshift"

// Reconciliation outcomes.
const (
	OutcomeApplied          = "applied"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeUnpaid           = "unpaid"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

// Metrics groups the workflow collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	transitions     *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	trackingEvents  *prometheus.CounterVec
	eventFailures   prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parcel_transitions_total",
			Help:      "Parcel delivery status transitions applied, by target status.",
		}, []string{"status"}),
		reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_reconciliations_total",
			Help:      "Payment confirmation callbacks, by outcome.",
		}, []string{"outcome"}),
		trackingEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_events_total",
			Help:      "Tracking log entries committed, by status.",
		}, []string{"status"}),
		eventFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_event_publish_failures_total",
			Help:      "Lifecycle events that could not be published.",
		}),
	}
}

// Transition counts an applied parcel status change.
func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// Reconciliation counts a payment callback outcome.
func (m *Metrics) Reconciliation(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

// TrackingEvent counts a committed tracking entry.
func (m *Metrics) TrackingEvent(status string) {
	if m == nil {
		return
	}
	m.trackingEvents.WithLabelValues(status).Inc()
}

// EventPublishFailure counts a lifecycle event that was dropped.
func (m *Metrics) EventPublishFailure() {
	if m == nil {
		return
	}
	m.eventFailures.Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
