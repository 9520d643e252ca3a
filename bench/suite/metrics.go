package suite

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes recorded in settle_benchmark_runs_total.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Metrics exposes the outcome of suite runs as Prometheus metrics. Each
// Runner owns a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	averageNs  *prometheus.GaugeVec
	iterations *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the suite metrics on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// runs counts benchmarks by outcome.
		// Labels: status (ok, failed, skipped)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settle",
			Subsystem: "benchmark",
			Name:      "runs_total",
			Help:      "Total benchmarks run, by outcome",
		}, []string{"status"}),

		averageNs: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "settle",
			Subsystem: "benchmark",
			Name:      "average_ns",
			Help:      "Average duration of one call in nanoseconds",
		}, []string{"id"}),

		iterations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "settle",
			Subsystem: "benchmark",
			Name:      "iterations",
			Help:      "Measured iterations of the last run",
		}, []string{"id"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "settle",
			Subsystem: "benchmark",
			Name:      "duration_seconds",
			Help:      "Wall time spent per benchmark, warm-up included",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"status"}),
	}
}

// Registry returns the registry holding the suite metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes every metric in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(status string, seconds float64) {
	m.runs.WithLabelValues(status).Inc()
	if status != StatusSkipped {
		m.duration.WithLabelValues(status).Observe(seconds)
	}
}

func (m *Metrics) record(id string, averageNs float64, iterations int) {
	m.averageNs.WithLabelValues(id).Set(averageNs)
	m.iterations.WithLabelValues(id).Set(float64(iterations))
}
