// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "alignment"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestsInFlight prometheus.Gauge
	RequestDuration  *prometheus.HistogramVec

	// Alignment result metrics
	WordsAligned    prometheus.Counter
	EndpointShiftMs prometheus.Histogram

	// Audio metrics
	AudioBytesDecoded prometheus.Counter
	AudioDuration     prometheus.Histogram
	LimitExceeded     *prometheus.CounterVec

	// Engine metrics
	EngineInvocations *prometheus.CounterVec

	// Kafka publish metrics
	EventsPublished     *prometheus.CounterVec
	EventPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of alignment requests by language and outcome",
		}, []string{"language", "outcome"}),
		RequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Number of alignment requests currently being processed",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of alignment request stages in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),

		WordsAligned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_aligned_total",
			Help:      "Total number of words aligned across all requests",
		}),
		EndpointShiftMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_shift_ms",
			Help:      "Per-word end time shift applied by refinement in milliseconds",
			Buckets:   []float64{-20, -10, -5, 0, 5, 10, 20, 40, 80},
		}),

		AudioBytesDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_decoded_total",
			Help:      "Total encoded audio bytes decoded",
		}),
		AudioDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_duration_seconds",
			Help:      "Duration of decoded audio clips in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		}),
		LimitExceeded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_exceeded_total",
			Help:      "Total number of requests rejected by audio limits",
		}, []string{"limit_type"}),

		EngineInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_invocations_total",
			Help:      "Total number of alignment engine invocations by status",
		}, []string{"engine", "status"}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Total number of lifecycle events published by status",
		}, []string{"topic", "status"}),
		EventPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordRequestStart records a request entering the pipeline.
func (m *Metrics) RecordRequestStart() {
	m.RequestsInFlight.Inc()
}

// RecordRequestEnd records a request leaving the pipeline with its outcome.
func (m *Metrics) RecordRequestEnd(language, outcome string, durationSeconds float64) {
	m.RequestsInFlight.Dec()
	m.RequestsTotal.WithLabelValues(language, outcome).Inc()
	m.RequestDuration.WithLabelValues("total").Observe(durationSeconds)
}

// RecordStage records the duration of a single pipeline stage.
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	m.RequestDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordWordsAligned records the word count of a completed alignment.
func (m *Metrics) RecordWordsAligned(count int) {
	m.WordsAligned.Add(float64(count))
}

// RecordEndpointShift records one word's refinement shift in milliseconds.
func (m *Metrics) RecordEndpointShift(shiftMs float64) {
	m.EndpointShiftMs.Observe(shiftMs)
}

// RecordAudioDecoded records a successful decode.
func (m *Metrics) RecordAudioDecoded(encodedBytes int, durationSeconds float64) {
	m.AudioBytesDecoded.Add(float64(encodedBytes))
	m.AudioDuration.Observe(durationSeconds)
}

// RecordLimitExceeded records a request rejected by an audio limit.
func (m *Metrics) RecordLimitExceeded(limitType string) {
	m.LimitExceeded.WithLabelValues(limitType).Inc()
}

// RecordEngineInvocation records one alignment engine call.
func (m *Metrics) RecordEngineInvocation(engine string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EngineInvocations.WithLabelValues(engine, status).Inc()
}

// RecordEventPublish records a lifecycle event publish attempt.
func (m *Metrics) RecordEventPublish(topic string, err error, latencySeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(topic, status).Inc()
	m.EventPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
}
