// Package telemetry exposes the gateway's Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lead_gateway"

// Metrics holds all gateway collectors. Every method is safe on a nil
// receiver so components can run without metrics in tests.
type Metrics struct {
	AttributionCaptures prometheus.Counter
	AnalyticsEvents     *prometheus.CounterVec
	AnalyticsFailures   *prometheus.CounterVec
	Submissions         *prometheus.CounterVec
	DispatchDuration    prometheus.Histogram
	BreakerOpen         prometheus.Gauge
	TrackedSessions     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AttributionCaptures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribution_captures_total",
			Help:      "Navigations that captured campaign parameters",
		}),
		AnalyticsEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_total",
			Help:      "Analytics events tracked, by event name",
		}, []string{"event"}),
		AnalyticsFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_sink_failures_total",
			Help:      "Analytics events a sink failed to accept, by sink",
		}, []string{"sink"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Contact form submissions, by outcome",
		}, []string{"outcome"}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "form_dispatch_duration_seconds",
			Help:      "Time spent dispatching a submission to the delivery endpoint",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		BreakerOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_circuit_open",
			Help:      "1 while the delivery endpoint circuit breaker is open",
		}),
		TrackedSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_tracked_sessions",
			Help:      "Sessions with a non-empty submission attempt log",
		}),
	}
}

// CaptureRecorded counts one attribution capture.
func (m *Metrics) CaptureRecorded() {
	if m == nil {
		return
	}
	m.AttributionCaptures.Inc()
}

// EventTracked counts one analytics event.
func (m *Metrics) EventTracked(name string) {
	if m == nil {
		return
	}
	m.AnalyticsEvents.WithLabelValues(name).Inc()
}

// SinkFailed counts one event a sink could not accept.
func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.AnalyticsFailures.WithLabelValues(sink).Inc()
}

// SubmissionFinished counts one submission outcome.
func (m *Metrics) SubmissionFinished(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// DispatchObserved records one dispatch duration.
func (m *Metrics) DispatchObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.DispatchDuration.Observe(d.Seconds())
}

// SetBreakerOpen reports the delivery circuit state.
func (m *Metrics) SetBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

// SetTrackedSessions reports the rate limiter registry size.
func (m *Metrics) SetTrackedSessions(n int) {
	if m == nil {
		return
	}
	m.TrackedSessions.Set(float64(n))
}
