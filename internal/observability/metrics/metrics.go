// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scamguard"

// Metrics holds all Prometheus metrics for the monitor and the replay backend.
type Metrics struct {
	// Stream metrics
	StreamMessages *prometheus.CounterVec
	PhaseChanges   *prometheus.CounterVec

	// Synchronizer metrics
	SegmentsDisplayed prometheus.Counter
	ScamDetections    prometheus.Counter
	Warnings          prometheus.Counter
	LogEvents         *prometheus.CounterVec
	BufferPending     prometheus.Gauge
	SyncTicks         prometheus.Counter

	// Text check metrics
	TextChecks       *prometheus.CounterVec
	TextCheckLatency prometheus.Histogram

	// Replay backend metrics
	ReplaySessions *prometheus.CounterVec

	// Alert publisher metrics
	AlertsPublished     *prometheus.CounterVec
	AlertPublishErrors  *prometheus.CounterVec
	AlertPublishLatency prometheus.Histogram
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StreamMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_total",
			Help:      "Total number of stream messages received, by kind",
		}, []string{"kind"}),
		PhaseChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_phase_changes_total",
			Help:      "Total number of connection phase transitions, by target phase",
		}, []string{"phase"}),

		SegmentsDisplayed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_displayed_total",
			Help:      "Total number of transcript segments displayed",
		}),
		ScamDetections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scam_detections_total",
			Help:      "Total number of SCAM segments displayed",
		}),
		Warnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Total number of warning escalations shown",
		}),
		LogEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_events_total",
			Help:      "Total number of backend log events, by surface",
		}, []string{"surface"}),
		BufferPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_pending",
			Help:      "Buffered events not yet displayed",
		}),
		SyncTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_ticks_total",
			Help:      "Total number of playback ticks processed",
		}),

		TextChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "text_checks_total",
			Help:      "Total number of text checks, by outcome",
		}, []string{"outcome"}),
		TextCheckLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "text_check_latency_seconds",
			Help:      "Text check request latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		ReplaySessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_sessions_total",
			Help:      "Total number of replay sessions, by final status",
		}, []string{"status"}),

		AlertsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_published_total",
			Help:      "Total number of alerts published",
		}, []string{"kind"}),
		AlertPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_publish_errors_total",
			Help:      "Total number of alert publish errors",
		}, []string{"kind"}),
		AlertPublishLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_publish_latency_seconds",
			Help:      "Alert publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordStreamMessage records an inbound stream message of the given kind.
func (m *Metrics) RecordStreamMessage(kind string) {
	m.StreamMessages.WithLabelValues(kind).Inc()
}

// RecordPhase records a connection phase transition.
func (m *Metrics) RecordPhase(phase string) {
	m.PhaseChanges.WithLabelValues(phase).Inc()
}

// RecordSegment records a displayed transcript segment.
func (m *Metrics) RecordSegment(scam bool) {
	m.SegmentsDisplayed.Inc()
	if scam {
		m.ScamDetections.Inc()
	}
}

// RecordWarning records a warning escalation.
func (m *Metrics) RecordWarning() {
	m.Warnings.Inc()
}

// RecordLogEvent records a routed backend log event.
func (m *Metrics) RecordLogEvent(surface string) {
	m.LogEvents.WithLabelValues(surface).Inc()
}

// RecordTick records one synchronizer pass and the events still withheld.
func (m *Metrics) RecordTick(pending int) {
	m.SyncTicks.Inc()
	m.BufferPending.Set(float64(pending))
}

// RecordTextCheck records a finished text check.
func (m *Metrics) RecordTextCheck(outcome string, latencySeconds float64) {
	m.TextChecks.WithLabelValues(outcome).Inc()
	m.TextCheckLatency.Observe(latencySeconds)
}

// RecordReplaySession records a replay session ending with status.
func (m *Metrics) RecordReplaySession(status string) {
	m.ReplaySessions.WithLabelValues(status).Inc()
}

// RecordAlertPublish records an alert publish attempt.
func (m *Metrics) RecordAlertPublish(kind string, err error, latencySeconds float64) {
	m.AlertsPublished.WithLabelValues(kind).Inc()
	m.AlertPublishLatency.Observe(latencySeconds)
	if err != nil {
		m.AlertPublishErrors.WithLabelValues(kind).Inc()
	}
}
