package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string // Optional; empty keeps subscriptions in memory
	LogLevel      string
	Environment   string

	SourceURL           string
	SourceTimeout       time.Duration
	SourceRatePerMinute int
	SourceBurst         int
	CacheTTL            time.Duration

	CronSpecNotify            string
	NotifyLeadMinutes         float64
	NotifyToleranceMinutes    float64
	NotifyMaxConcurrentGroups int

	MetricsAddr string // Optional; empty disables the /metrics listener
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.SourceURL = os.Getenv("SOURCE_URL")
	if cfg.SourceURL == "" {
		cfg.SourceURL = "https://svitlo.oe.if.ua/api/schedule"
	}

	if cfg.SourceTimeout, err = durationEnv("SOURCE_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.SourceRatePerMinute, err = intEnv("SOURCE_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	// Default burst lets one cycle miss the cache for all 24 groups at once.
	if cfg.SourceBurst, err = intEnv("SOURCE_BURST", 24); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}

	cfg.CronSpecNotify = os.Getenv("CRON_SPEC_NOTIFY")
	if cfg.CronSpecNotify == "" {
		cfg.CronSpecNotify = "@every 1m" // Default: every minute
	}

	if cfg.NotifyLeadMinutes, err = floatEnv("NOTIFY_LEAD_MINUTES", 15); err != nil {
		return nil, err
	}
	if cfg.NotifyToleranceMinutes, err = floatEnv("NOTIFY_TOLERANCE_MINUTES", 1); err != nil {
		return nil, err
	}
	if cfg.NotifyToleranceMinutes < 0 || cfg.NotifyToleranceMinutes >= cfg.NotifyLeadMinutes {
		return nil, fmt.Errorf("NOTIFY_TOLERANCE_MINUTES must be in [0, NOTIFY_LEAD_MINUTES)")
	}
	if cfg.NotifyMaxConcurrentGroups, err = intEnv("NOTIFY_MAX_CONCURRENT_GROUPS", 8); err != nil {
		return nil, err
	}

	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
