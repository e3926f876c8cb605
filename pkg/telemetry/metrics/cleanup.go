package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cleanup kinds used as label values.
const (
	KindAudio      = "audio"
	KindNewsletter = "newsletter"
)

// CleanupMetrics tracks retention runs.
type CleanupMetrics struct {
	runsTotal    prometheus.Counter
	deletedTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	bytesFreed   prometheus.Counter
	pending      *prometheus.GaugeVec
}

// NewCleanupMetrics creates and registers cleanup metrics.
func NewCleanupMetrics(registry *prometheus.Registry) *CleanupMetrics {
	cm := &CleanupMetrics{
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cleanup",
			Name:      "runs_total",
			Help:      "Completed cleanup runs",
		}),
		deletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cleanup",
			Name:      "deleted_total",
			Help:      "Items removed by cleanup",
		}, []string{"kind"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cleanup",
			Name:      "errors_total",
			Help:      "Cleanup failures",
		}, []string{"kind"}),
		bytesFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cleanup",
			Name:      "bytes_freed_total",
			Help:      "Audio bytes reclaimed by cleanup",
		}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cleanup",
			Name:      "pending",
			Help:      "Items eligible for deletion at the last stats computation",
		}, []string{"kind"}),
	}

	registry.MustRegister(cm.runsTotal, cm.deletedTotal, cm.errorsTotal, cm.bytesFreed, cm.pending)
	return cm
}

// CleanupResult carries the counters of one cleanup run.
type CleanupResult struct {
	AudioDeleted       int
	AudioErrors        int
	BytesFreed         int64
	NewslettersDeleted int64
	DatabaseErrors     int
}

// RecordCleanup records a finished cleanup run.
func (c *Collector) RecordCleanup(r CleanupResult) {
	if c == nil {
		return
	}
	c.cleanup.runsTotal.Inc()
	c.cleanup.deletedTotal.WithLabelValues(KindAudio).Add(float64(r.AudioDeleted))
	c.cleanup.deletedTotal.WithLabelValues(KindNewsletter).Add(float64(r.NewslettersDeleted))
	c.cleanup.errorsTotal.WithLabelValues(KindAudio).Add(float64(r.AudioErrors))
	c.cleanup.errorsTotal.WithLabelValues(KindNewsletter).Add(float64(r.DatabaseErrors))
	c.cleanup.bytesFreed.Add(float64(r.BytesFreed))
}

// SetCleanupPending records how many items of kind are eligible for deletion.
func (c *Collector) SetCleanupPending(kind string, n int) {
	if c == nil {
		return
	}
	c.cleanup.pending.WithLabelValues(kind).Set(float64(n))
}
