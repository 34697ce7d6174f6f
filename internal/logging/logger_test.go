package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/claude/reptrack/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLevel verifies level names map onto slog levels with info as fallback.
func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Level("DEBUG"))
	assert.Equal(t, slog.LevelWarn, Level("warn"))
	assert.Equal(t, slog.LevelError, Level("error"))
	assert.Equal(t, slog.LevelInfo, Level("verbose"))
}

// TestHandlerJSON verifies the JSON format and level filtering.
func TestHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Handler(&buf, config.LogConfig{Level: "warn", Format: "json"}))
	log.Info("dropped")
	log.Warn("kept", "reps", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, 3.0, rec["reps"])
}

// TestNewWritesFile verifies the rotated log file receives records.
func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reptrack.log")
	log, closer := New(config.LogConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1})
	log.Info("session started", "exercise", "squats")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exercise=squats")
}
