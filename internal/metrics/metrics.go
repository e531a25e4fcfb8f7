package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rpc_provider"

const (
	EndpointActive   float64 = 1
	EndpointInactive float64 = 0
)

// Metrics groups the collectors of one provider. Each provider owns its own
// set; pass a prometheus.Registerer to expose them.
type Metrics struct {
	// CallsTotal counts logical calls by method and outcome.
	CallsTotal *prometheus.CounterVec
	// CallDuration measures logical calls end to end.
	CallDuration *prometheus.HistogramVec
	// AttemptsTotal counts per-endpoint attempts by outcome.
	AttemptsTotal *prometheus.CounterVec
	// AttemptDuration measures single endpoint attempts.
	AttemptDuration *prometheus.HistogramVec

	// EndpointLatency shows the latest probe latency per endpoint.
	EndpointLatency *prometheus.GaugeVec
	// EndpointBlockNumber shows the latest probed head per endpoint.
	EndpointBlockNumber *prometheus.GaugeVec
	// EndpointIsActive shows whether the last probe succeeded (1) or not (0).
	EndpointIsActive *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which is what tests and throwaway providers want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of logical RPC calls.",
		}, []string{"method", "outcome"}),

		CallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Duration of logical RPC calls including failover.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Total number of endpoint attempts.",
		}, []string{"endpoint", "method", "outcome"}), // outcome: success, transport, protocol, cancelled

		AttemptDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single endpoint attempts.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"endpoint"}),

		EndpointLatency: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoint_latency_seconds",
			Help:      "Latest probe latency for each RPC endpoint.",
		}, []string{"endpoint"}),

		EndpointBlockNumber: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoint_block_number",
			Help:      "Latest block number reported by each RPC endpoint.",
		}, []string{"endpoint"}),

		EndpointIsActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoint_is_active",
			Help:      "Whether an endpoint answered the last probe (1) or not (0).",
		}, []string{"endpoint"}),
	}
}
