package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"trace": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewJSON(t *testing.T) {
	var text, js bytes.Buffer
	logger := New(&text, &js, slog.LevelInfo, "json")

	logger.Debug("hidden")
	logger.Info("Invoice created", "invoice_id", "inv-1")

	assert.Zero(t, text.Len())
	var entry map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &entry))
	assert.Equal(t, "Invoice created", entry["msg"])
	assert.Equal(t, "inv-1", entry["invoice_id"])
}

func TestNewText(t *testing.T) {
	var text, js bytes.Buffer
	logger := New(&text, &js, slog.LevelWarn, "text")

	logger.Info("hidden")
	logger.Warn("Plan missing", "plan_id", "p-1")

	assert.Zero(t, js.Len())
	assert.Contains(t, text.String(), "Plan missing")
	assert.Contains(t, text.String(), "p-1")
	assert.NotContains(t, text.String(), "hidden")
}
