package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for intelligence lookups.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	lookups          *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	criticRejections prometheus.Counter
	outcomes         *prometheus.CounterVec
	evidence         *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intel",
			Name:      "lookups_total",
			Help:      "Intelligence lookups by serving source.",
		}, []string{"source"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intel",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each discovery pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		criticRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intel",
			Subsystem: "pipeline",
			Name:      "critic_rejections_total",
			Help:      "Profiles rejected by the critic stage.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intel",
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		evidence: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intel",
			Subsystem: "pipeline",
			Name:      "evidence_items_total",
			Help:      "Evidence items by provenance and audit decision.",
		}, []string{"provenance", "decision"}),
	}

	m.registry.MustRegister(
		m.lookups,
		m.stageDuration,
		m.criticRejections,
		m.outcomes,
		m.evidence,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveLookup counts a served lookup
func (m *Metrics) ObserveLookup(source string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(source).Inc()
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRejection counts a critic rejection
func (m *Metrics) ObserveRejection() {
	if m == nil {
		return
	}
	m.criticRejections.Inc()
}

// ObserveOutcome counts a finished pipeline run
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(outcome).Inc()
}

// ObserveEvidence counts audited evidence items
func (m *Metrics) ObserveEvidence(provenance, decision string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evidence.WithLabelValues(provenance, decision).Add(float64(n))
}
