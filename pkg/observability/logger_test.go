package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatJSON, Output: &buf, ServiceVersion: "1.2.0"})

	logger.Info("block created", "block_id", "blk-1")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "block created", entries[0]["msg"])
	assert.Equal(t, "blk-1", entries[0]["block_id"])
	assert.Equal(t, ServiceName, entries[0]["service"])
	assert.Equal(t, "1.2.0", entries[0]["version"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatText, Output: &buf})

	logger.Info("bookings loaded", "count", 3)

	assert.Contains(t, buf.String(), "bookings loaded")
	assert.Contains(t, buf.String(), "count=3")
	assert.Contains(t, buf.String(), "service=salonops")
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level   LogLevel
		debug   bool
		info    bool
		warning bool
	}{
		{LogLevelDebug, true, true, true},
		{LogLevelInfo, false, true, true},
		{LogLevelWarn, false, false, true},
		{LogLevelError, false, false, false},
		{"bogus", false, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LogConfig{Level: tt.level, Output: &buf})
			ctx := context.Background()
			assert.Equal(t, tt.debug, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.info, logger.Enabled(ctx, slog.LevelInfo))
			assert.Equal(t, tt.warning, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestNewLogger_ContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelDebug, Format: LogFormatJSON, Output: &buf}).
		With("component", "coordinator").
		WithGroup("draft")

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithActorID(ctx, "admin-7")
	logger.DebugContext(ctx, "submitting", "mode", "create")
	logger.Debug("no context values")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "coordinator", entries[0]["component"])
	group, ok := entries[0]["draft"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "create", group["mode"])
	assert.Equal(t, "corr-1", group[CorrelationIDKey])
	assert.Equal(t, "req-1", group[RequestIDKey])
	assert.Equal(t, "admin-7", group[ActorIDKey])

	assert.NotContains(t, entries[1], CorrelationIDKey)
}

func TestLogConfigFor(t *testing.T) {
	t.Setenv("SALONOPS_VERSION", "")

	dev := LogConfigFor("development", "", "")
	assert.Equal(t, LogLevelInfo, dev.Level)
	assert.Equal(t, LogFormatText, dev.Format)
	assert.False(t, dev.AddSource)

	prod := LogConfigFor("production", "", "")
	assert.Equal(t, LogFormatJSON, prod.Format)
	assert.True(t, prod.AddSource)

	overridden := LogConfigFor("production", "DEBUG", "Text")
	assert.Equal(t, LogLevelDebug, overridden.Level)
	assert.Equal(t, LogFormatText, overridden.Format)
}

func TestBuildVersion(t *testing.T) {
	t.Setenv("SALONOPS_VERSION", "2024.06.1")
	assert.Equal(t, "2024.06.1", BuildVersion())
	assert.Equal(t, "2024.06.1", LogConfigFor("", "", "").ServiceVersion)

	t.Setenv("SALONOPS_VERSION", "")
	assert.NotEmpty(t, BuildVersion())
}
