package config

import (
	"strings"
	"time"

	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/objectkey"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend sections get defaults for every type, so a generated file
//     documents all of them
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
	applyRecordsDefaults(&cfg.Records)
	applyObjectsDefaults(&cfg.Objects)
	applyDriveDefaults(&cfg.Drive)
	applyReconcileDefaults(&cfg.Reconcile)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = drive.DefaultOperationTimeout
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 50 << 20 // 50MB
	}
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{"*"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyRecordsDefaults(cfg *RecordsConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.Mongo == nil {
		cfg.Mongo = make(map[string]any)
	}
	if cfg.Postgres == nil {
		cfg.Postgres = make(map[string]any)
	}

	setDefault(cfg.Badger, "db_path", "/tmp/clouddrive-records")
	setDefault(cfg.Mongo, "database", "clouddrive")
	setDefault(cfg.Mongo, "collection", "driveitems")
	setDefault(cfg.Postgres, "auto_migrate", true)
}

func applyObjectsDefaults(cfg *ObjectsConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Memory == nil {
		cfg.Memory = make(map[string]any)
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	setDefault(cfg.Memory, "bucket", "memory")
	setDefault(cfg.Memory, "base_url", "http://localhost:8080/objects")
	setDefault(cfg.Filesystem, "path", "/tmp/clouddrive-objects")
	setDefault(cfg.Filesystem, "base_url", "http://localhost:8080/objects")
	setDefault(cfg.S3, "region", "us-east-1")
	setDefault(cfg.S3, "max_attempts", 1)
}

func applyDriveDefaults(cfg *DriveConfig) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = objectkey.DefaultPrefix
	}
	if cfg.ViewLinkTTL == 0 {
		cfg.ViewLinkTTL = drive.DefaultViewLinkTTL
	}
	if cfg.DanglingParents == "" {
		cfg.DanglingParents = string(drive.DanglingHide)
	}
	cfg.DanglingParents = strings.ToLower(cfg.DanglingParents)
}

func applyReconcileDefaults(cfg *ReconcileConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.PassTimeout == 0 {
		cfg.PassTimeout = 30 * time.Minute
	}
	if cfg.MinRecordAge == 0 {
		cfg.MinRecordAge = 15 * time.Minute
	}
	if cfg.MinObjectAge == 0 {
		cfg.MinObjectAge = 24 * time.Hour
	}
	if cfg.DeleteBurst == 0 {
		cfg.DeleteBurst = 1
	}
	if cfg.ReportLimit == 0 {
		cfg.ReportLimit = 100
	}
	// DeleteRate defaults to 0 (unlimited)
}

// setDefault sets key unless it already holds a non-nil value.
func setDefault(m map[string]any, key string, value any) {
	if v, ok := m[key]; ok && v != nil {
		return
	}
	m[key] = value
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		API: APIConfig{
			Enabled: true,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
