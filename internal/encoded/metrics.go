package encoded

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of the statistics cache.
type Metrics struct {
	CacheRequests *prometheus.CounterVec
	Loads         prometheus.Counter
	LoadFailures  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orcsarg_stats_cache_requests_total",
		Help: "Total statistics cache lookups by result",
	}, []string{"result"})

	loads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orcsarg_stats_loads_total",
		Help: "Total statistics loaded from the underlying reader",
	})

	loadFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orcsarg_stats_load_failures_total",
		Help: "Total statistics loads that returned an error",
	})

	reg.MustRegister(cacheRequests, loads, loadFailures)

	return &Metrics{
		CacheRequests: cacheRequests,
		Loads:         loads,
		LoadFailures:  loadFailures,
	}
}
