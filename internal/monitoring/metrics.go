// Package monitoring records run counters with Prometheus collectors and
// exports them in the node exporter textfile format.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
)

// Namespace prefixes every metric name.
const Namespace = "osmdoc"

// Ensure Metrics implements the interface.
var _ driven.MetricsRecorder = (*Metrics)(nil)

// Metrics holds the collectors of one process run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Elements      *prometheus.CounterVec
	Documents     *prometheus.CounterVec
	OutputBytes   prometheus.Counter
	Inserted      prometheus.Counter
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	LastRun       prometheus.Gauge
}

// New registers a fresh set of collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Elements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "elements_read_total",
				Help:      "Total number of eligible extract elements read",
			},
			[]string{"kind"},
		),
		Documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "documents_written_total",
				Help:      "Total number of documents written to the output file",
			},
			[]string{"kind"},
		),
		OutputBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "output_bytes_total",
			Help:      "Total number of bytes written to the output file",
		}),
		Inserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "documents_inserted_total",
			Help:      "Total number of documents inserted into the store",
		}),
		Queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "queries_total",
				Help:      "Total number of analysis queries completed",
			},
			[]string{"query"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "query_duration_seconds",
				Help:      "Analysis query duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"query"},
		),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_completed_timestamp_seconds",
			Help:      "Unix time the last command finished",
		}),
	}
}

// ElementRead counts one eligible element.
func (m *Metrics) ElementRead(kind string) {
	m.Elements.WithLabelValues(kind).Inc()
}

// DocumentWritten counts one output line.
func (m *Metrics) DocumentWritten(kind string, n int) {
	m.Documents.WithLabelValues(kind).Inc()
	m.OutputBytes.Add(float64(n))
}

// DocumentsInserted counts stored documents.
func (m *Metrics) DocumentsInserted(n int) {
	m.Inserted.Add(float64(n))
}

// QueryCompleted records one analysis query.
func (m *Metrics) QueryCompleted(name string, d time.Duration) {
	m.Queries.WithLabelValues(name).Inc()
	m.QueryDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Registry exposes the collectors, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile stamps the completion time and writes every collector to
// path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, m.registry)
}
