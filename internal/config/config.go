// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for minimal containers

	"github.com/go-playground/validator/v10"
)

// Config holds the settings shared by the binaries.
type Config struct {
	DBPath            string        `validate:"required"`
	LogLevel          string        `validate:"oneof=debug info warn error"`
	LogFormat         string        `validate:"oneof=text json"`
	BillingCronSpec   string        `validate:"required"`
	BillingTimezone   string        `validate:"required"`
	MetricsAddr       string        `validate:"omitempty,hostname_port"`
	BillingMaxRetries int           `validate:"gte=0,lte=10"`
	BillingRetryDelay time.Duration `validate:"gte=0"`
	JobTimeout        time.Duration `validate:"gt=0"`
	RunOnce           bool
}

var validate = validator.New()

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "./data/colivsplit.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		BillingCronSpec: getEnv("BILLING_CRON_SPEC", "0 2 1 * *"),
		BillingTimezone: getEnv("BILLING_TIMEZONE", "UTC"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
	}

	var err error
	if cfg.BillingMaxRetries, err = strconv.Atoi(getEnv("BILLING_MAX_RETRIES", "3")); err != nil {
		return nil, fmt.Errorf("BILLING_MAX_RETRIES: %w", err)
	}
	if cfg.BillingRetryDelay, err = time.ParseDuration(getEnv("BILLING_RETRY_DELAY", "30s")); err != nil {
		return nil, fmt.Errorf("BILLING_RETRY_DELAY: %w", err)
	}
	if cfg.JobTimeout, err = time.ParseDuration(getEnv("BILLING_JOB_TIMEOUT", "10m")); err != nil {
		return nil, fmt.Errorf("BILLING_JOB_TIMEOUT: %w", err)
	}
	if cfg.RunOnce, err = strconv.ParseBool(getEnv("RUN_ONCE", "false")); err != nil {
		return nil, fmt.Errorf("RUN_ONCE: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves BillingTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BillingTimezone)
	if err != nil {
		return nil, fmt.Errorf("BILLING_TIMEZONE: %w", err)
	}
	return loc, nil
}
