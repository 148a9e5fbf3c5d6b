package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics is safe to use as a nil pointer, every method is a no-op then.
type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "converter",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by operation and result.",
		}, []string{"operation", "result"}),
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "converter",
			Name:      "provider_requests_total",
			Help:      "Upstream rate provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
	}
}

func (m *Metrics) CacheHit(operation string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(operation, "hit").Inc()
}

func (m *Metrics) CacheMiss(operation string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(operation, "miss").Inc()
}

func (m *Metrics) ProviderRequest(provider, outcome string) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
}
