// Package metrics exposes import counters and latencies to Prometheus.
package metrics

import (
	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// ImportMetrics records every completed import. It implements
// core.ImportObserver.
type ImportMetrics struct {
	imports  prometheus.Counter
	rows     *prometheus.CounterVec
	duration prometheus.Histogram
	lastSize prometheus.Gauge
}

// NewImportMetrics registers the import collectors. A nil registerer uses
// prometheus.DefaultRegisterer.
func NewImportMetrics(registerer prometheus.Registerer) *ImportMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &ImportMetrics{
		imports: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userimport_imports_total",
			Help: "Completed imports.",
		}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userimport_rows_total",
			Help: "Processed rows by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "userimport_import_duration_seconds",
			Help:    "Wall time of one import.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "userimport_last_import_rows",
			Help: "Rows processed by the most recent import.",
		}),
	}
	registerer.MustRegister(m.imports, m.rows, m.duration, m.lastSize)

	// Pre-create label values so the series exist before the first import.
	for _, outcome := range []string{OutcomeCreated, OutcomeSkipped, OutcomeError} {
		m.rows.WithLabelValues(outcome)
	}
	return m
}

func (m *ImportMetrics) ObserveImport(r *core.Report) {
	if r == nil {
		return
	}
	m.imports.Inc()
	m.rows.WithLabelValues(OutcomeCreated).Add(float64(r.CreatedCount()))
	m.rows.WithLabelValues(OutcomeSkipped).Add(float64(r.SkippedCount()))
	m.rows.WithLabelValues(OutcomeError).Add(float64(r.ErrorCount()))
	m.duration.Observe(r.Duration.Seconds())
	m.lastSize.Set(float64(r.TotalProcessed))
}
