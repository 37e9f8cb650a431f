package sarg

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus metrics of search argument construction.
type Metrics struct {
	Builds       prometheus.Counter
	CNFFallbacks prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	builds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orcsarg_builds_total",
		Help: "Total search arguments built",
	})

	cnfFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orcsarg_cnf_fallbacks_total",
		Help: "Total disjunctions replaced by YES_NO_NULL because CNF expansion exceeded the threshold",
	})

	reg.MustRegister(builds, cnfFallbacks)

	return &Metrics{
		Builds:       builds,
		CNFFallbacks: cnfFallbacks,
	}
}
