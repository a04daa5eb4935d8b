// Package prometheus provides Prometheus-backed implementations of the
// metrics interfaces declared by the drive, reconcile, S3 and HTTP
// packages.
//
// Every constructor returns nil (or a no-op) when metrics.InitRegistry has
// not been called, which makes the consumer fall back to its built-in no-op.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/metrics"
)

// driveMetrics is the Prometheus implementation of drive.Metrics.
type driveMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	orphanedObjects   *prometheus.CounterVec
}

// NewDriveMetrics creates a Prometheus-backed drive.Metrics.
//
// Returns nil if metrics are not enabled, so drive.Service uses its no-op.
func NewDriveMetrics() drive.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newDriveMetrics(metrics.GetRegistry())
}

func newDriveMetrics(reg prometheus.Registerer) *driveMetrics {
	return &driveMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "clouddrive_operations_total",
				Help: "Total number of drive operations by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "clouddrive_operation_duration_seconds",
				Help: "Duration of drive operations in seconds",
				Buckets: []float64{
					0.005, // 5ms
					0.025, // 25ms
					0.1,   // 100ms
					0.25,  // 250ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
				},
			},
			[]string{"operation"},
		),
		orphanedObjects: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "clouddrive_orphaned_objects_total",
				Help: "Objects left in storage without a record, by reason",
			},
			[]string{"reason"},
		),
	}
}

func (m *driveMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	kind := "ok"
	if err != nil {
		kind = drive.KindOf(err).String()
	}
	m.operationsTotal.WithLabelValues(operation, kind).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *driveMetrics) RecordOrphanedObject(reason string) {
	m.orphanedObjects.WithLabelValues(reason).Inc()
}
