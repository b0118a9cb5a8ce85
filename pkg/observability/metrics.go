package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics. Every method is safe on a nil
// receiver so that callers can run uninstrumented.
type Metrics struct {
	// Compiler metrics
	CriteriaAppliedTotal *prometheus.CounterVec
	PredicatesTotal      *prometheus.CounterVec
	FieldsSkippedTotal   *prometheus.CounterVec

	// Query execution metrics
	QueryDuration    *prometheus.HistogramVec
	QueryErrorsTotal *prometheus.CounterVec
	RowsReturned     *prometheus.HistogramVec

	registry prometheus.Registerer
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		CriteriaAppliedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querykit_criteria_applied_total",
				Help: "Total number of criteria applied to queries",
			},
			[]string{"kind"},
		),
		PredicatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querykit_predicates_total",
				Help: "Total number of search predicates compiled",
			},
			[]string{"operator"},
		),
		FieldsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querykit_fields_skipped_total",
				Help: "Total number of fields or directives dropped during compilation",
			},
			[]string{"reason"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "querykit_query_duration_seconds",
				Help:    "Query execution duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		QueryErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "querykit_query_errors_total",
				Help: "Total number of failed query executions",
			},
			[]string{"operation"},
		),
		RowsReturned: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "querykit_rows_returned",
				Help:    "Number of rows returned per read",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"operation"},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.CriteriaAppliedTotal,
		m.PredicatesTotal,
		m.FieldsSkippedTotal,
		m.QueryDuration,
		m.QueryErrorsTotal,
		m.RowsReturned,
	)

	return m
}

// RegisterCacheStats exposes a hits/misses source as counters
func (m *Metrics) RegisterCacheStats(name string, stats func() (hits, misses int64)) {
	if m == nil || stats == nil {
		return
	}
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "querykit_schema_cache_hits_total",
			Help:        "Total number of schema cache hits",
			ConstLabels: labels,
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "querykit_schema_cache_misses_total",
			Help:        "Total number of schema cache misses",
			ConstLabels: labels,
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

// CriteriaApplied counts one application of a criterion of kind
func (m *Metrics) CriteriaApplied(kind string) {
	if m == nil {
		return
	}
	m.CriteriaAppliedTotal.WithLabelValues(kind).Inc()
}

// PredicateBuilt counts one compiled predicate
func (m *Metrics) PredicateBuilt(operator string) {
	if m == nil {
		return
	}
	m.PredicatesTotal.WithLabelValues(operator).Inc()
}

// FieldSkipped counts one dropped field or directive
func (m *Metrics) FieldSkipped(reason string) {
	if m == nil {
		return
	}
	m.FieldsSkippedTotal.WithLabelValues(reason).Inc()
}

// ObserveQuery records the outcome of one query execution
func (m *Metrics) ObserveQuery(operation string, start time.Time, rows int, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.QueryErrorsTotal.WithLabelValues(operation).Inc()
		return
	}
	if rows >= 0 {
		m.RowsReturned.WithLabelValues(operation).Observe(float64(rows))
	}
}
