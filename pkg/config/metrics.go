package config

import (
	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/metrics"
	promMetrics "github.com/marmos91/clouddrive/pkg/metrics/prometheus"
	"github.com/marmos91/clouddrive/pkg/reconcile"
	"github.com/marmos91/clouddrive/pkg/store/object/s3"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// HTTP is the collector for the API adapter (never nil, uses noop if disabled)
	HTTP metrics.HTTPMetrics

	// Drive, S3 and Reconcile are nil when disabled; their consumers fall
	// back to built-in no-ops.
	Drive     drive.Metrics
	S3        s3.S3Metrics
	Reconcile reconcile.Metrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
//
// Call it once per process: collectors register on the global registry.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			HTTP: metrics.NewNoopHTTPMetrics(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server:    server,
		HTTP:      promMetrics.NewHTTPMetrics(),
		Drive:     promMetrics.NewDriveMetrics(),
		S3:        promMetrics.NewS3Metrics(),
		Reconcile: promMetrics.NewReconcileMetrics(),
	}
}
