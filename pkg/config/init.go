package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# CloudDrive Configuration File
#
# Every key can be overridden with an environment variable named
# CLOUDDRIVE_<SECTION>_<KEY>, e.g. CLOUDDRIVE_LOGGING_LEVEL=DEBUG.
# AWS_BUCKET_NAME, AWS_REGION, MONGODB_URI, DATABASE_URL and PORT are
# honored as well.

`

// sectionComments are written above each top-level section.
var sectionComments = map[string]string{
	"logging":   "Log level (DEBUG, INFO, WARN, ERROR), format (text, json) and output (stdout, stderr, path)",
	"server":    "Graceful shutdown budget and the per-call timeout for store operations",
	"api":       "HTTP API. auth_token enables Bearer authentication on /api routes",
	"metrics":   "Prometheus endpoint",
	"records":   "Item record store: memory, badger, mongo or postgres",
	"objects":   "Object store: memory, filesystem or s3",
	"drive":     "dangling_parents: hide, root (list under root, flagged) or prune (reconciler deletes them)",
	"reconcile": "Consistency reconciler. Ghost objects are only reported; purge them with 'clouddrive ghosts purge'",
}

// InitConfig writes the default configuration to the default location.
//
// Returns the path written. Fails if the file exists and force is false.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the default configuration to path, creating parent
// directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML with a header and a comment
// above each section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	// A mapping node holds alternating key and value nodes
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	return buf.String(), nil
}
