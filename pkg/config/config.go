package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete clouddrive configuration.
//
// This structure captures all configurable aspects of the service including:
//   - Logging configuration
//   - Process-wide settings (timeouts)
//   - The HTTP API and the metrics endpoint
//   - Record store selection and configuration (store-specific)
//   - Object store selection and configuration (store-specific)
//   - Drive behavior and the reconciler
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (CLOUDDRIVE_* and the conventional aliases)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each backend defines its own configuration type. The Config struct holds
// type-specific sections (e.g. records.badger, objects.s3) as maps and only
// the section matching the selected type is decoded.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains process-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// API configures the HTTP adapter
	API APIConfig `mapstructure:"api" yaml:"api"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Records selects the item record store
	Records RecordsConfig `mapstructure:"records" yaml:"records"`

	// Objects selects the object gateway
	Objects ObjectsConfig `mapstructure:"objects" yaml:"objects"`

	// Drive configures the tree, deletion and view-link operations
	Drive DriveConfig `mapstructure:"drive" yaml:"drive"`

	// Reconcile configures the consistency reconciler
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`

	// OperationTimeout bounds every store call made while serving a request
	// (negative disables)
	OperationTimeout time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
}

// APIConfig configures the HTTP adapter.
type APIConfig struct {
	// Enabled starts the HTTP API in serve mode
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Host is the interface to bind ("" = all)
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the TCP port to listen on
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`

	// AuthToken, when set, is required as a Bearer token on /api routes
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token,omitempty"`

	// MaxUploadBytes caps multipart upload bodies
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`

	// CORSOrigins lists allowed origins ("*" allows any)
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled initializes the registry and serves /metrics
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the TCP port of the metrics server
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// RecordsConfig specifies the item record store.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type RecordsConfig struct {
	// Type specifies which record store implementation to use
	// Valid values: memory, badger, mongo, postgres
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger mongo postgres"`

	// Badger contains BadgerDB-specific configuration
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`

	// Mongo contains MongoDB-specific configuration
	Mongo map[string]any `mapstructure:"mongo" yaml:"mongo,omitempty"`

	// Postgres contains PostgreSQL-specific configuration
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// ObjectsConfig specifies the object gateway.
type ObjectsConfig struct {
	// Type specifies which gateway implementation to use
	// Valid values: memory, filesystem, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory filesystem s3"`

	// Memory contains memory-specific configuration
	Memory map[string]any `mapstructure:"memory" yaml:"memory,omitempty"`

	// Filesystem contains filesystem-specific configuration
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// S3 contains S3-specific configuration
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// DriveConfig configures the drive operations.
type DriveConfig struct {
	// KeyPrefix is the object key namespace for new uploads
	KeyPrefix string `mapstructure:"key_prefix" yaml:"key_prefix" validate:"required"`

	// ViewLinkTTL is the lifetime of signed view links
	ViewLinkTTL time.Duration `mapstructure:"view_link_ttl" yaml:"view_link_ttl" validate:"gt=0"`

	// DanglingParents is the policy for items whose parent folder is gone
	// Valid values: hide, root, prune
	DanglingParents string `mapstructure:"dangling_parents" yaml:"dangling_parents" validate:"required,oneof=hide root prune"`
}

// ReconcileConfig configures the reconciler.
type ReconcileConfig struct {
	// Enabled runs the periodic worker in serve mode
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval between periodic passes
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`

	// PassTimeout bounds a single periodic pass
	PassTimeout time.Duration `mapstructure:"pass_timeout" yaml:"pass_timeout" validate:"gt=0"`

	// DryRun reports without deleting
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`

	// MinRecordAge protects recently created records
	MinRecordAge time.Duration `mapstructure:"min_record_age" yaml:"min_record_age" validate:"gte=0"`

	// MinObjectAge protects recently written objects from ghost purges
	MinObjectAge time.Duration `mapstructure:"min_object_age" yaml:"min_object_age" validate:"gte=0"`

	// DeleteRate caps deletions per second (0 = unlimited)
	DeleteRate float64 `mapstructure:"delete_rate" yaml:"delete_rate" validate:"gte=0"`

	// DeleteBurst is the rate limiter burst
	DeleteBurst int `mapstructure:"delete_burst" yaml:"delete_burst" validate:"gte=1"`

	// ReportLimit caps the ids and keys kept in reports
	ReportLimit int `mapstructure:"report_limit" yaml:"report_limit" validate:"gte=1"`
}

// envKeys are the configuration keys bound to CLOUDDRIVE_* variables.
//
// Viper only resolves environment variables for keys it knows about, so keys
// that may be absent from the config file are bound explicitly.
var envKeys = []string{
	"logging.level", "logging.format", "logging.output",
	"server.shutdown_timeout", "server.operation_timeout",
	"api.enabled", "api.host", "api.port", "api.auth_token", "api.max_upload_bytes",
	"metrics.enabled", "metrics.port",
	"records.type",
	"records.badger.db_path",
	"records.mongo.uri", "records.mongo.database", "records.mongo.collection",
	"records.postgres.url", "records.postgres.table_prefix",
	"objects.type",
	"objects.filesystem.path", "objects.filesystem.base_url", "objects.filesystem.signing_key",
	"objects.s3.bucket", "objects.s3.region", "objects.s3.prefix", "objects.s3.endpoint",
	"objects.s3.access_key_id", "objects.s3.secret_access_key", "objects.s3.public_url",
	"drive.key_prefix", "drive.view_link_ttl", "drive.dangling_parents",
	"reconcile.enabled", "reconcile.interval", "reconcile.dry_run",
	"reconcile.min_record_age", "reconcile.min_object_age",
	"reconcile.delete_rate", "reconcile.delete_burst", "reconcile.report_limit",
}

// envAliases are conventional variable names honored after the prefixed one.
var envAliases = map[string][]string{
	"api.port":                     {"PORT"},
	"records.mongo.uri":            {"MONGODB_URI"},
	"records.postgres.url":         {"DATABASE_URL"},
	"objects.s3.bucket":            {"AWS_BUCKET_NAME"},
	"objects.s3.region":            {"AWS_REGION"},
	"objects.s3.access_key_id":     {"AWS_ACCESS_KEY_ID"},
	"objects.s3.secret_access_key": {"AWS_SECRET_ACCESS_KEY"},
}

// dotEnvFiles are loaded, in order, before the environment is read. Values
// already present in the environment are never overridden.
var dotEnvFiles = []string{".env.local", ".env"}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CLOUDDRIVE_*, then aliases such as AWS_REGION)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(dotEnvFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := setupViper(v, configPath); err != nil {
		return nil, err
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads each file that exists. Missing files are skipped.
func loadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) error {
	// Example: CLOUDDRIVE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("CLOUDDRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true must be seeded before unmarshalling;
	// ApplyDefaults cannot tell false from unset.
	v.SetDefault("api.enabled", true)

	for _, key := range envKeys {
		names := append([]string{envName(key)}, envAliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/clouddrive/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	return nil
}

func envName(key string) string {
	return "CLOUDDRIVE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// A missing file, searched for or explicit, means defaults only
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "clouddrive")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "clouddrive")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
