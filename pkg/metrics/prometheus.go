package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	snapshotsTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastComposite  prometheus.Gauge
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		snapshotsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_snapshots_total",
				Help: "Day snapshots handled, by write path",
			},
			[]string{"path"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastComposite: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "marketpulse_composite_score",
				Help: "Most recently computed composite sentiment score",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSnapshot counts a handled snapshot by write path.
func (r *Recorder) RecordSnapshot(path string) {
	r.snapshotsTotal.WithLabelValues(path).Inc()
}

// RecordComposite records the latest composite score.
func (r *Recorder) RecordComposite(score int) {
	r.lastComposite.Set(float64(score))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
