// Package metrics exports server lifecycle counts in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/openziti/pandapi/kernel/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks how many servers are in each state and how many
// transitions have happened. It implements engine.Observer.
type Metrics struct {
	registry    *prometheus.Registry
	servers     *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	purged      prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		servers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pandapi_servers",
			Help: "Servers currently held, by lifecycle state",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pandapi_server_transitions_total",
			Help: "Lifecycle transitions applied",
		}, []string{"from", "to"}),
		purged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pandapi_servers_purged_total",
			Help: "Servers removed from the system",
		}),
	}
	m.registry.MustRegister(m.servers, m.transitions, m.purged)

	for _, state := range []model.ServerState{model.StateBuilding, model.StateRunning, model.StateTerminating, model.StateDestroyed} {
		m.servers.WithLabelValues(state.String())
	}
	return m
}

func (m *Metrics) OnTransition(_ string, from, to model.ServerState) {
	if from != model.StateUnset {
		m.servers.WithLabelValues(from.String()).Dec()
	}
	m.servers.WithLabelValues(to.String()).Inc()
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) OnPurge(_ string, last model.ServerState) {
	m.servers.WithLabelValues(last.String()).Dec()
	m.purged.Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
