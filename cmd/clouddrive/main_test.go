package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const memoryConfig = `
logging:
  level: ERROR
records:
  type: memory
objects:
  type: memory
api:
  auth_token: topsecret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "clouddrive "+Version)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid.")
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := writeConfig(t, "records:\n  type: sqlite\n")

	_, err := execute(t, "config", "validate", "--config", path)
	require.Error(t, err)
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "topsecret")
	assert.Contains(t, out, "type: memory")
}

func TestReconcileCommand_DryRun(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := execute(t, "reconcile", "--dry-run", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "DRY RUN")
	assert.Contains(t, out, "Objects scanned:")
	assert.Contains(t, out, "Ghost records:")
}

func TestAuditCommand_JSON(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := execute(t, "audit", "--json", "--config", path)
	require.NoError(t, err)

	var report struct {
		RecordsError string `json:"recordsError"`
		ObjectsError string `json:"objectsError"`
		FileRecords  int64  `json:"fileRecords"`
		Objects      int64  `json:"objects"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.RecordsError)
	assert.Empty(t, report.ObjectsError)
	assert.Zero(t, report.FileRecords)
	assert.Zero(t, report.Objects)
}

func TestAuditCommand_Text(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := execute(t, "audit", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "RECORDS")
	assert.Contains(t, out, "OBJECTS")
}

func TestGhostsCommands(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := execute(t, "ghosts", "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No ghost objects found.")

	out, err = execute(t, "ghosts", "purge", "--min-age", "1h", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "dry_run=true")
	assert.Contains(t, out, "ghosts=0")
}

func TestServeCommand_NothingEnabled(t *testing.T) {
	path := writeConfig(t, memoryConfig+"\n  enabled: false\n")

	_, err := execute(t, "serve", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to serve")
}
