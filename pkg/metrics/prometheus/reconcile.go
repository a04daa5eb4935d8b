package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/clouddrive/pkg/metrics"
	"github.com/marmos91/clouddrive/pkg/reconcile"
)

// reconcileMetrics is the Prometheus implementation of reconcile.Metrics.
type reconcileMetrics struct {
	passesTotal     *prometheus.CounterVec
	passDuration    prometheus.Histogram
	lastPassTime    prometheus.Gauge
	ghostRecords    prometheus.Gauge
	ghostObjects    prometheus.Gauge
	recordsDeleted  prometheus.Counter
	itemsPruned     prometheus.Counter
	objectsPurged   prometheus.Counter
	purgeBytesFreed prometheus.Counter
	deleteFailures  *prometheus.CounterVec
}

// NewReconcileMetrics creates a Prometheus-backed reconcile.Metrics.
//
// Returns nil if metrics are not enabled.
func NewReconcileMetrics() reconcile.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newReconcileMetrics(metrics.GetRegistry())
}

func newReconcileMetrics(reg prometheus.Registerer) *reconcileMetrics {
	return &reconcileMetrics{
		passesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "clouddrive_reconcile_passes_total",
				Help: "Total number of reconciliation passes by status",
			},
			[]string{"status"},
		),
		passDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "clouddrive_reconcile_pass_duration_seconds",
				Help:    "Duration of reconciliation passes in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 4, 8), // 100ms .. ~27min
			},
		),
		lastPassTime: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "clouddrive_reconcile_last_pass_timestamp_seconds",
				Help: "Unix time the last successful pass finished",
			},
		),
		ghostRecords: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "clouddrive_reconcile_ghost_records",
				Help: "Ghost records confirmed by the last pass",
			},
		),
		ghostObjects: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "clouddrive_reconcile_ghost_objects",
				Help: "Objects without a record found by the last pass",
			},
		),
		recordsDeleted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "clouddrive_reconcile_records_deleted_total",
				Help: "Ghost records deleted",
			},
		),
		itemsPruned: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "clouddrive_reconcile_items_pruned_total",
				Help: "Dangling items deleted",
			},
		),
		objectsPurged: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "clouddrive_reconcile_objects_purged_total",
				Help: "Ghost objects deleted by explicit purges",
			},
		),
		purgeBytesFreed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "clouddrive_reconcile_purge_bytes_freed_total",
				Help: "Bytes freed by ghost object purges",
			},
		),
		deleteFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "clouddrive_reconcile_delete_failures_total",
				Help: "Deletions that failed, by target",
			},
			[]string{"target"}, // record or object
		),
	}
}

func (m *reconcileMetrics) ObservePass(stats *reconcile.Stats, err error) {
	if err != nil {
		m.passesTotal.WithLabelValues("error").Inc()
		return
	}
	m.passesTotal.WithLabelValues("success").Inc()
	m.passDuration.Observe(stats.Duration().Seconds())
	m.lastPassTime.Set(float64(stats.EndTime.Unix()))
	m.ghostRecords.Set(float64(stats.GhostRecords))
	m.ghostObjects.Set(float64(stats.GhostObjects))
	m.recordsDeleted.Add(float64(stats.DeletedRecords))
	m.itemsPruned.Add(float64(stats.PrunedItems))
	m.deleteFailures.WithLabelValues("record").Add(float64(stats.FailedDeletes))
}

func (m *reconcileMetrics) ObservePurge(stats *reconcile.PurgeStats, err error) {
	if stats == nil {
		return
	}
	m.objectsPurged.Add(float64(stats.Deleted))
	m.purgeBytesFreed.Add(float64(stats.BytesFreed))
	m.deleteFailures.WithLabelValues("object").Add(float64(stats.Failed))
}
