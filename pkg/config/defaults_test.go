package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Empty(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"logging.level", cfg.Logging.Level, "INFO"},
		{"logging.format", cfg.Logging.Format, "text"},
		{"logging.output", cfg.Logging.Output, "stdout"},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout, 30 * time.Second},
		{"server.operation_timeout", cfg.Server.OperationTimeout, 30 * time.Second},
		{"api.port", cfg.API.Port, 8080},
		{"api.max_upload_bytes", cfg.API.MaxUploadBytes, int64(50 << 20)},
		{"metrics.port", cfg.Metrics.Port, 9090},
		{"records.type", cfg.Records.Type, "memory"},
		{"objects.type", cfg.Objects.Type, "filesystem"},
		{"drive.key_prefix", cfg.Drive.KeyPrefix, "drive-uploads"},
		{"drive.view_link_ttl", cfg.Drive.ViewLinkTTL, 15 * time.Minute},
		{"drive.dangling_parents", cfg.Drive.DanglingParents, "hide"},
		{"reconcile.interval", cfg.Reconcile.Interval, 24 * time.Hour},
		{"reconcile.pass_timeout", cfg.Reconcile.PassTimeout, 30 * time.Minute},
		{"reconcile.min_record_age", cfg.Reconcile.MinRecordAge, 15 * time.Minute},
		{"reconcile.min_object_age", cfg.Reconcile.MinObjectAge, 24 * time.Hour},
		{"reconcile.delete_burst", cfg.Reconcile.DeleteBurst, 1},
		{"reconcile.report_limit", cfg.Reconcile.ReportLimit, 100},
		{"reconcile.delete_rate", cfg.Reconcile.DeleteRate, 0.0},
		{"reconcile.enabled", cfg.Reconcile.Enabled, false},
		{"reconcile.dry_run", cfg.Reconcile.DryRun, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Logging:   LoggingConfig{Level: "debug", Format: "json", Output: "stderr"},
		Server:    ServerConfig{ShutdownTimeout: time.Minute, OperationTimeout: -1},
		Drive:     DriveConfig{KeyPrefix: "custom", ViewLinkTTL: time.Minute, DanglingParents: "PRUNE"},
		Reconcile: ReconcileConfig{Interval: time.Hour, DeleteBurst: 5, ReportLimit: 7},
	}
	ApplyDefaults(&cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Expected explicit logging settings preserved, got %+v", cfg.Logging)
	}
	if cfg.Server.ShutdownTimeout != time.Minute {
		t.Errorf("Expected shutdown timeout 1m, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.OperationTimeout != -1 {
		t.Errorf("Expected negative operation timeout preserved, got %v", cfg.Server.OperationTimeout)
	}
	if cfg.Drive.KeyPrefix != "custom" || cfg.Drive.ViewLinkTTL != time.Minute {
		t.Errorf("Expected explicit drive settings preserved, got %+v", cfg.Drive)
	}
	if cfg.Drive.DanglingParents != "prune" {
		t.Errorf("Expected dangling policy normalized to prune, got %q", cfg.Drive.DanglingParents)
	}
	if cfg.Reconcile.Interval != time.Hour || cfg.Reconcile.DeleteBurst != 5 || cfg.Reconcile.ReportLimit != 7 {
		t.Errorf("Expected explicit reconcile settings preserved, got %+v", cfg.Reconcile)
	}
}

func TestApplyDefaults_BackendSections(t *testing.T) {
	cfg := Config{
		Records: RecordsConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": "/data/records", "in_memory": nil},
		},
		Objects: ObjectsConfig{
			Type: "s3",
			S3:   map[string]any{"bucket": "b", "region": nil},
		},
	}
	ApplyDefaults(&cfg)

	if cfg.Records.Badger["db_path"] != "/data/records" {
		t.Errorf("Expected explicit db_path kept, got %v", cfg.Records.Badger["db_path"])
	}
	if cfg.Records.Mongo["collection"] != "driveitems" {
		t.Errorf("Expected default mongo collection, got %v", cfg.Records.Mongo["collection"])
	}
	if cfg.Objects.S3["region"] != "us-east-1" {
		t.Errorf("Expected nil region replaced by default, got %v", cfg.Objects.S3["region"])
	}
	if cfg.Objects.Filesystem["path"] != "/tmp/clouddrive-objects" {
		t.Errorf("Expected default filesystem path, got %v", cfg.Objects.Filesystem["path"])
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if !cfg.API.Enabled {
		t.Error("Expected API enabled by default")
	}
	if cfg.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Reconcile.Enabled {
		t.Error("Expected periodic reconciliation disabled by default")
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("Expected CORS origins [*], got %v", cfg.API.CORSOrigins)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}
