package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric name.
const Namespace = "courier"

// Collector owns the registry and every metric family.
type Collector struct {
	registry *prometheus.Registry

	generation *GenerationMetrics
	cleanup    *CleanupMetrics
	provider   *ProviderMetrics
	http       *HTTPMetrics
}

// NewCollector creates a collector. If registry is nil a fresh private
// registry is created with Go runtime and process collectors attached.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return &Collector{
		registry:   registry,
		generation: NewGenerationMetrics(registry),
		cleanup:    NewCleanupMetrics(registry),
		provider:   NewProviderMetrics(registry),
		http:       NewHTTPMetrics(registry),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
