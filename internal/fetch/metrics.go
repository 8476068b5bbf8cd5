package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts interceptor outcomes and background write failures.
type Metrics struct {
	NetworkRequests  *prometheus.CounterVec
	CacheFallbacks   prometheus.Counter
	OfflineResponses prometheus.Counter
	CacheWrites      prometheus.Counter
	WriteFailures    prometheus.Counter
}

// NewMetrics creates and registers the interceptor metrics. Pass nil to use
// the default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)
	return &Metrics{
		NetworkRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "offline_gateway_network_requests_total",
			Help: "Upstream network attempts by outcome.",
		}, []string{"outcome"}),
		CacheFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_gateway_cache_fallbacks_total",
			Help: "Requests answered from the cache after a network failure.",
		}),
		OfflineResponses: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_gateway_offline_responses_total",
			Help: "Synthesized 503 responses served.",
		}),
		CacheWrites: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_gateway_cache_writes_total",
			Help: "Write-through snapshots handed to the background writer.",
		}),
		WriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "offline_gateway_cache_write_failures_total",
			Help: "Background cache writes that failed.",
		}),
	}
}
