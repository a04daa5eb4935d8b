package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/clouddrive/pkg/metrics"
	"github.com/marmos91/clouddrive/pkg/store/object"
	"github.com/marmos91/clouddrive/pkg/store/object/s3"
)

type s3Metrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	payloadBytes *prometheus.CounterVec
	failures     *prometheus.CounterVec
}

// NewS3Metrics creates a Prometheus-backed s3.S3Metrics.
//
// Returns nil if metrics are not enabled, which causes the S3 gateway to
// use its built-in no-op implementation.
func NewS3Metrics() s3.S3Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newS3Metrics(metrics.GetRegistry())
}

func newS3Metrics(reg prometheus.Registerer) *s3Metrics {
	f := promauto.With(reg)
	return &s3Metrics{
		callsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clouddrive_s3_operations_total",
			Help: "S3 API calls by operation and outcome (ok, missing, error)",
		}, []string{"operation", "outcome"}),
		// 5ms .. ~20s
		callDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clouddrive_s3_operation_duration_seconds",
			Help:    "Duration of S3 API calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2.5, 10),
		}, []string{"operation"}),
		payloadBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clouddrive_s3_bytes_transferred_total",
			Help: "Object payload bytes uploaded (PutObject) or downloaded (GetObject)",
		}, []string{"operation"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "clouddrive_s3_errors_total",
			Help: "Failed S3 API calls by operation and gateway error class",
		}, []string{"operation", "reason"}),
	}
}

// ObserveOperation implements s3.S3Metrics. A missing object is an
// expected answer to HeadObject and GetObject, so it is not a failure.
func (m *s3Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, object.ErrObjectNotFound):
		outcome = "missing"
	default:
		outcome = "error"
		m.failures.WithLabelValues(operation, failureReason(err)).Inc()
	}

	m.callsTotal.WithLabelValues(operation, outcome).Inc()
	m.callDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBytes implements s3.S3Metrics.
func (m *s3Metrics) RecordBytes(operation string, bytes int64) {
	m.payloadBytes.WithLabelValues(operation).Add(float64(bytes))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, object.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, object.ErrInvalidKey):
		return "invalid_key"
	default:
		return "other"
	}
}
