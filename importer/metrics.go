// ABOUTME: Prometheus counters describing import runs
// ABOUTME: Private registry per importer, exported to a node_exporter textfile after each run
package importer

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters updated by every import run.
type Metrics struct {
	// Registry owns the metrics below.
	Registry *prometheus.Registry

	rows     *prometheus.CounterVec
	messages *prometheus.CounterVec
	events   *prometheus.CounterVec
	revenue  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the import metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadledger_import_rows_total",
				Help: "Rows seen by import runs, by source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadledger_import_messages_total",
				Help: "Errors and warnings recorded by import runs.",
			},
			[]string{"source", "severity"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadledger_timeline_events_total",
				Help: "Timeline events written, by source.",
			},
			[]string{"source"},
		),
		revenue: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadledger_imported_revenue_total",
				Help: "Gross imported revenue in the payment currency, by source.",
			},
			[]string{"source"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadledger_import_duration_seconds",
				Help:    "Wall time of import runs.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
	}
}

// Observe records a finished batch.
func (m *Metrics) Observe(b *Batch) {
	if m == nil || b == nil {
		return
	}
	src := b.SourceType
	m.rows.WithLabelValues(src, "processed").Add(float64(b.Processed))
	m.rows.WithLabelValues(src, "imported").Add(float64(b.Imported))
	m.rows.WithLabelValues(src, "skipped").Add(float64(b.Skipped))
	m.rows.WithLabelValues(src, "updated").Add(float64(b.Updated))
	m.messages.WithLabelValues(src, "error").Add(float64(len(b.Errors)))
	m.messages.WithLabelValues(src, "warning").Add(float64(len(b.Warnings)))
	m.events.WithLabelValues(src).Add(float64(b.TimelineEvents))
	if !b.CompletedAt.IsZero() {
		m.duration.WithLabelValues(src).Observe(b.CompletedAt.Sub(b.StartedAt).Seconds())
	}
}

// ObserveRevenue adds gross revenue for source. The float conversion is only
// for reporting; stored amounts stay exact.
func (m *Metrics) ObserveRevenue(source string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	m.revenue.WithLabelValues(source).Add(amount)
}

// WriteTextfile writes the current values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
