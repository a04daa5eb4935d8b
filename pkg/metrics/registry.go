// Package metrics holds the process-wide Prometheus registry, the metrics
// HTTP server, and the HTTP request metrics interface.
//
// All metrics are optional. Components take a metrics interface and fall
// back to a no-op implementation when given nil, so the service runs with
// or without collection enabled. Prometheus-backed implementations live in
// pkg/metrics/prometheus.
//
// Usage:
//
//	metrics.InitRegistry()
//	driveMetrics := prometheus.NewDriveMetrics()
//	svc := drive.New(items, objects, drive.Config{Metrics: driveMetrics})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// registry is the global Prometheus registry
	// Protected by registryOnce for write-once, read-many pattern
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry with the Go
// runtime and process collectors.
//
// It's safe to call multiple times - subsequent calls are ignored. If never
// called, GetRegistry returns nil and constructors return no-op metrics.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled returns true if InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
