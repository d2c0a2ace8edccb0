package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "partsight"

var (
	SnapshotLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_loads_total",
		Help:      "Snapshot loads by source and result (hit, miss, error).",
	}, []string{"source", "result"})

	SnapshotLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "snapshot_load_duration_seconds",
		Help:      "Time spent reading a snapshot from its source.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	ComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compute_duration_seconds",
		Help:      "Time spent computing a report over one snapshot.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
	}, []string{"report"})

	ReorderAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reorder_alerts",
		Help:      "Items at or below their minimum quantity in the last health run.",
	})
)

// ObserveCompute records the duration of a report started at start.
func ObserveCompute(report string, start time.Time) {
	ComputeDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
}
