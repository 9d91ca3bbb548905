package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wifiradar.log")
	cfg := DefaultConfig()
	cfg.Output = path
	cfg.Level = "warn"

	logger, closer, err := New(cfg)
	require.NoError(t, err)

	logger.Info("Dropped below level")
	logger.Warn("Scan failed", "interface", "wlan0")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Scan failed", entry["msg"])
	assert.Equal(t, "wlan0", entry["interface"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestNew_TextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.log")
	logger, closer, err := New(Config{Level: "debug", Format: "text", Output: path})
	require.NoError(t, err)

	logger.Debug("Tables reloaded", "path", "/etc/wifiradar/tables.yaml")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `msg="Tables reloaded"`)
}

func TestNew_UnknownFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"})
	assert.Error(t, err)
}
