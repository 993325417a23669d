package gossip

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds an isolated Prometheus registry for the gossip core, kept
// separate from any other subsystem's registry so this package never
// collides with names registered elsewhere in the process.
type Metrics struct {
	Registry *prometheus.Registry

	ReputationDeltasTotal       *prometheus.CounterVec
	BitfieldsAccepted           prometheus.Counter
	ActiveRelayParents          prometheus.Gauge
	RelayParentActivationErrors prometheus.Counter
}

// NewMetrics builds a Metrics with a fresh registry and registers every
// collector against it.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		ReputationDeltasTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bifrost_gossip_reputation_deltas_total",
				Help: "Total number of reputation adjustments applied, by reason.",
			},
			[]string{"reason"},
		),
		BitfieldsAccepted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bifrost_gossip_bitfields_accepted_total",
				Help: "Total number of first-seen availability bitfields accepted.",
			},
		),
		ActiveRelayParents: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bifrost_gossip_active_relay_parents",
				Help: "Number of relay parents currently active in our view.",
			},
		),
		RelayParentActivationErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bifrost_gossip_relay_parent_activation_errors_total",
				Help: "Total number of relay parent activations that failed a chain-state query.",
			},
		),
	}

	reg.MustRegister(
		m.ReputationDeltasTotal,
		m.BitfieldsAccepted,
		m.ActiveRelayParents,
		m.RelayParentActivationErrors,
	)

	return m
}
