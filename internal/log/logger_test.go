package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestSetupWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWriter(&buf, "INFO")
	l.Debug("hidden")
	l.Info("hello", "tenant_id", "T1")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "hello", out["msg"])
	assert.Equal(t, "T1", out["tenant_id"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	WithComponent(l, "gateway").Info("ready")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "gateway", out["component"])

	buf.Reset()
	SetupWriter(&buf, "INFO")
	WithComponent(nil, "workflow").Info("ready")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "workflow", out["component"])
}

func TestOrDefault(t *testing.T) {
	assert.Same(t, slog.Default(), OrDefault(nil))
	d := Discard()
	assert.Same(t, d, OrDefault(d))
}
