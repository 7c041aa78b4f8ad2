package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"", zapcore.InfoLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestBuildRejectsUnknownFormat(t *testing.T) {
	_, err := build(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestBuildConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.String("channel", "red"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, `"channel": "red"`)
}

func TestBuildJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(Config{Format: "json"}, &buf)
	require.NoError(t, err)

	log.Named("loop").Info("command", zap.String("command", "red_on"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "loop", entry["logger"])
	assert.Equal(t, "command", entry["msg"])
	assert.Equal(t, "red_on", entry["command"])
}

func TestBuildFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledctl.log")
	var buf bytes.Buffer
	log, err := build(Config{File: path, MaxSizeMB: 1}, &buf)
	require.NoError(t, err)

	log.Info("to both")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"to both"`), "file gets JSON: %s", data)
	assert.Contains(t, buf.String(), "to both")
}
