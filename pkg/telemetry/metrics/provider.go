package metrics

import "github.com/prometheus/client_golang/prometheus"

// ProviderMetrics tracks external collaborator health.
type ProviderMetrics struct {
	errorsTotal *prometheus.CounterVec
	healthy     *prometheus.GaugeVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Collaborator failures by provider and error type",
		}, []string{"provider", "type"}),
		healthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "provider",
			Name:      "healthy",
			Help:      "1 if the provider's last health check passed",
		}, []string{"provider"}),
	}

	registry.MustRegister(pm.errorsTotal, pm.healthy)
	return pm
}

// RecordProviderError counts a collaborator failure. errorType is one of
// "auth", "rate_limit", "timeout", "parse", "validation" or "server_error".
func (c *Collector) RecordProviderError(provider, errorType string) {
	if c == nil {
		return
	}
	c.provider.errorsTotal.WithLabelValues(provider, errorType).Inc()
}

// UpdateProviderHealth sets the health gauge for provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if c == nil {
		return
	}
	v := 0.0
	if healthy {
		v = 1
	}
	c.provider.healthy.WithLabelValues(provider).Set(v)
}
