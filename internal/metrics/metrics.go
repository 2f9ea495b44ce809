package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a webhook call.
const (
	OutcomeSent    = "sent"
	OutcomeIgnored = "ignored"
	OutcomeFailed  = "failed"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	Events        *prometheus.CounterVec
	Failures      *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
}

// New creates the relay metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pushrelay_webhook_events_total",
			Help: "Webhook events received, by outcome (sent, ignored, failed).",
		}, []string{"outcome"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pushrelay_failures_total",
			Help: "Failed relays by the stage that failed.",
		}, []string{"stage"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pushrelay_stage_duration_seconds",
			Help:    "Latency of the token exchange and provider send stages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// ObserveEvent counts a webhook event with the given outcome.
func (m *Metrics) ObserveEvent(outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(outcome).Inc()
}

// ObserveFailure counts a failure at stage.
func (m *Metrics) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(stage).Inc()
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
