package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "BILLING_CRON_SPEC", "BILLING_TIMEZONE",
		"METRICS_ADDR", "BILLING_MAX_RETRIES", "BILLING_RETRY_DELAY", "BILLING_JOB_TIMEOUT", "RUN_ONCE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data/colivsplit.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "0 2 1 * *", cfg.BillingCronSpec)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 3, cfg.BillingMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.BillingRetryDelay)
	assert.False(t, cfg.RunOnce)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/billing.db")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("BILLING_TIMEZONE", "Europe/Lisbon")
	t.Setenv("BILLING_MAX_RETRIES", "5")
	t.Setenv("BILLING_RETRY_DELAY", "2m")
	t.Setenv("RUN_ONCE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/billing.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5, cfg.BillingMaxRetries)
	assert.Equal(t, 2*time.Minute, cfg.BillingRetryDelay)
	assert.True(t, cfg.RunOnce)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"non-numeric retries", "BILLING_MAX_RETRIES", "many"},
		{"too many retries", "BILLING_MAX_RETRIES", "50"},
		{"bad retry delay", "BILLING_RETRY_DELAY", "soon"},
		{"unknown timezone", "BILLING_TIMEZONE", "Mars/Olympus"},
		{"bad metrics address", "METRICS_ADDR", "not an address"},
		{"bad run once flag", "RUN_ONCE", "sometimes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
