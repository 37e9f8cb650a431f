package scan

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of row group selection.
type Metrics struct {
	RowGroups      *prometheus.CounterVec
	StripesSkipped prometheus.Counter
	PlanDuration   prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	rowGroups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcsarg_row_groups_total",
		Help: "Total row groups evaluated by decision",
	}, []string{"decision"})

	stripesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orcsarg_stripes_skipped_total",
		Help: "Total stripes skipped on their stripe statistics alone",
	})

	planDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orcsarg_plan_duration_seconds",
		Help:    "Time spent selecting the row groups of one file",
		Buckets: prometheus.DefBuckets,
	})

	reg.MustRegister(rowGroups, stripesSkipped, planDuration)

	return &Metrics{
		RowGroups:      rowGroups,
		StripesSkipped: stripesSkipped,
		PlanDuration:   planDuration,
	}
}
