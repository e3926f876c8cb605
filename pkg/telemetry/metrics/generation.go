package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks newsletter generation runs.
type GenerationMetrics struct {
	runsTotal    *prometheus.CounterVec
	duration     prometheus.Histogram
	inFlight     prometheus.Gauge
	mirrorErrors *prometheus.CounterVec
}

// NewGenerationMetrics creates and registers generation metrics.
func NewGenerationMetrics(registry *prometheus.Registry) *GenerationMetrics {
	gm := &GenerationMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "generation",
				Name:      "runs_total",
				Help:      "Generation runs by terminal status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "generation",
				Name:      "duration_seconds",
				Help:      "Wall time of a generation run",
				// Content plus narration routinely takes minutes
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "generation",
				Name:      "in_flight",
				Help:      "Generation runs currently executing",
			},
		),
		mirrorErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "mirror",
				Name:      "errors_total",
				Help:      "Artifact mirror failures by operation",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(gm.runsTotal, gm.duration, gm.inFlight, gm.mirrorErrors)
	return gm
}

// GenerationStarted increments the in-flight gauge.
func (c *Collector) GenerationStarted() {
	if c == nil {
		return
	}
	c.generation.inFlight.Inc()
}

// GenerationFinished decrements the in-flight gauge and records the outcome.
func (c *Collector) GenerationFinished(status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.generation.inFlight.Dec()
	c.generation.runsTotal.WithLabelValues(status).Inc()
	c.generation.duration.Observe(duration.Seconds())
}

// RecordMirrorError counts a failed mirror operation ("put" or "delete").
func (c *Collector) RecordMirrorError(operation string) {
	if c == nil {
		return
	}
	c.generation.mirrorErrors.WithLabelValues(operation).Inc()
}
