package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/clouddrive/pkg/metrics"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	uploadBytes      prometheus.Histogram
}

// NewHTTPMetrics creates a Prometheus-backed HTTPMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled.
func NewHTTPMetrics() metrics.HTTPMetrics {
	if !metrics.IsEnabled() {
		return metrics.NewNoopHTTPMetrics()
	}
	return newHTTPMetrics(metrics.GetRegistry())
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "clouddrive_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "clouddrive_http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
				Buckets: []float64{
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
				},
			},
			[]string{"route", "method"},
		),
		requestsInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "clouddrive_http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
		uploadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "clouddrive_http_upload_bytes",
				Help: "Size of accepted uploads in bytes",
				Buckets: []float64{
					65536,     // 64KB
					1048576,   // 1MB
					10485760,  // 10MB
					52428800,  // 50MB
					104857600, // 100MB
				},
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *httpMetrics) RecordRequestStart() {
	m.requestsInFlight.Inc()
}

func (m *httpMetrics) RecordRequestEnd() {
	m.requestsInFlight.Dec()
}

func (m *httpMetrics) RecordUploadBytes(bytes int64) {
	m.uploadBytes.Observe(float64(bytes))
}
