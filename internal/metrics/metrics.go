// Package metrics exposes prometheus collectors for intents handled by the
// channel and the git operations run on their behalf.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kllc"

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry    *prometheus.Registry
	intents     *prometheus.CounterVec
	vcsDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Intents handled by the channel, by command and outcome code.",
			},
			[]string{"command", "outcome"},
		),
		vcsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vcs_operation_duration_seconds",
				Help:      "Duration of version control operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		),
	}
	m.registry.MustRegister(
		m.intents,
		m.vcsDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIntent counts one handled intent
func (m *Metrics) ObserveIntent(command, outcome string) {
	m.intents.WithLabelValues(command, outcome).Inc()
}

func (m *Metrics) observeVCS(operation string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.vcsDuration.WithLabelValues(operation, result).Observe(seconds)
}
