package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetLevel("WARN")
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLevel("INFO")
		SetOutput(os.Stdout)
	})

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "shown 2", entry["message"])
}

func TestConfigureFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clouddrive.log")
	require.NoError(t, Configure(Config{Level: "debug", Format: "json", Output: path}))
	t.Cleanup(func() {
		_ = Configure(Config{Level: "info", Format: "text", Output: "stdout"})
	})

	Debug("reconcile pass %s", "done")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reconcile pass done")
	assert.Equal(t, LevelDebug, GetLevel())
}
