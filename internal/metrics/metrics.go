// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nhath/ezgrid/internal/query"
)

// Metrics holds the grid's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	QueryTotal    *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryRows     *prometheus.CounterVec
	QueryErrors   *prometheus.CounterVec

	RowsMerged  *prometheus.CounterVec
	RowsDropped *prometheus.CounterVec
	RowsEvicted *prometheus.CounterVec
	CachedRows  *prometheus.GaugeVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueryTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ezgrid_query_total",
				Help: "Total number of backend queries",
			},
			[]string{"kind", "table", "status"},
		),
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ezgrid_query_duration_seconds",
				Help:    "Backend query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "table"},
		),
		QueryRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ezgrid_query_rows_read_total",
				Help: "Total number of rows read from the backend",
			},
			[]string{"table"},
		),
		QueryErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ezgrid_query_errors_total",
				Help: "Total number of failed backend queries",
			},
			[]string{"kind", "table"},
		),
		RowsMerged: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ezgrid_rows_merged_total",
				Help: "Rows merged into the row cache",
			},
			[]string{"table"},
		),
		RowsDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ezgrid_stale_results_total",
				Help: "Row results discarded because a newer request superseded them",
			},
			[]string{"table"},
		),
		RowsEvicted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ezgrid_rows_evicted_total",
				Help: "Rows evicted from the row cache",
			},
			[]string{"table"},
		),
		CachedRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ezgrid_cached_rows",
				Help: "Rows currently held in the row cache",
			},
			[]string{"table"},
		),
	}
}

// Record implements query.Recorder
func (m *Metrics) Record(st query.Statement) {
	if m == nil {
		return
	}
	status := "success"
	if st.Err != nil {
		status = "error"
		m.QueryErrors.WithLabelValues(st.Kind, st.Table).Inc()
	}
	m.QueryTotal.WithLabelValues(st.Kind, st.Table, status).Inc()
	m.QueryDuration.WithLabelValues(st.Kind, st.Table).Observe(st.Duration.Seconds())
	if st.Kind == "rows" {
		m.QueryRows.WithLabelValues(st.Table).Add(float64(st.Rows))
	}
}

// Merged counts rows accepted into the cache
func (m *Metrics) Merged(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsMerged.WithLabelValues(table).Add(float64(n))
}

// Dropped counts a discarded stale result
func (m *Metrics) Dropped(table string) {
	if m == nil {
		return
	}
	m.RowsDropped.WithLabelValues(table).Inc()
}

// Evicted counts rows evicted from the cache
func (m *Metrics) Evicted(table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsEvicted.WithLabelValues(table).Add(float64(n))
}

// Cached sets the current cache size
func (m *Metrics) Cached(table string, n int) {
	if m == nil {
		return
	}
	m.CachedRows.WithLabelValues(table).Set(float64(n))
}
