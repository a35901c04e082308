package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	for _, key := range []string{"DATABASE_URL", "LOG_LEVEL", "ENVIRONMENT", "SOURCE_URL", "SOURCE_TIMEOUT",
		"SOURCE_RATE_PER_MINUTE", "SOURCE_BURST", "CACHE_TTL", "CRON_SPEC_NOTIFY", "NOTIFY_LEAD_MINUTES",
		"NOTIFY_TOLERANCE_MINUTES", "NOTIFY_MAX_CONCURRENT_GROUPS", "METRICS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "https://svitlo.oe.if.ua/api/schedule", cfg.SourceURL)
	assert.Equal(t, 15*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 30, cfg.SourceRatePerMinute)
	assert.Equal(t, 24, cfg.SourceBurst)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, "@every 1m", cfg.CronSpecNotify)
	assert.Equal(t, 15.0, cfg.NotifyLeadMinutes)
	assert.Equal(t, 1.0, cfg.NotifyToleranceMinutes)
	assert.Equal(t, 8, cfg.NotifyMaxConcurrentGroups)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("NOTIFY_LEAD_MINUTES", "10")
	t.Setenv("NOTIFY_TOLERANCE_MINUTES", "0.5")
	t.Setenv("CRON_SPEC_NOTIFY", "@every 30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 10.0, cfg.NotifyLeadMinutes)
	assert.Equal(t, 0.5, cfg.NotifyToleranceMinutes)
	assert.Equal(t, "@every 30s", cfg.CronSpecNotify)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing token", env: map[string]string{"TELEGRAM_TOKEN": ""}},
		{name: "bad ttl", env: map[string]string{"TELEGRAM_TOKEN": "x", "CACHE_TTL": "soon"}},
		{name: "negative timeout", env: map[string]string{"TELEGRAM_TOKEN": "x", "SOURCE_TIMEOUT": "-1s"}},
		{name: "zero burst", env: map[string]string{"TELEGRAM_TOKEN": "x", "SOURCE_BURST": "0"}},
		{name: "bad rate", env: map[string]string{"TELEGRAM_TOKEN": "x", "SOURCE_RATE_PER_MINUTE": "many"}},
		{name: "tolerance too wide", env: map[string]string{"TELEGRAM_TOKEN": "x", "NOTIFY_LEAD_MINUTES": "5", "NOTIFY_TOLERANCE_MINUTES": "5"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
