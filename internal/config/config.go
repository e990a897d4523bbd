// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/currency"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/logging"
)

// Config holds every setting of the billing server.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret verifies HS256 bearer tokens. Required.
	JWTSecret string

	// BillingCron is the five-field schedule of the daily billing job.
	BillingCron string
	// BillingLocation decides which calendar day "today" is.
	BillingLocation   *time.Location
	BillingJobTimeout time.Duration
	// RunBillingOnStartup runs the daily job once when the server starts.
	RunBillingOnStartup bool

	DefaultCurrency string
	BaseCurrency    string
	ExchangeRates   currency.StaticRates
	ExchangeRateTTL time.Duration

	LogLevel  slog.Level
	LogFormat string
}

// Load reads the first existing file of envFiles (default ".env") into the
// process environment without overriding variables already set, then builds
// a Config from the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		break
	}

	cfg := &Config{
		DBPath:              getEnv("DB_PATH", "./data/billing.db"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		BillingCron:         getEnv("BILLING_CRON", "0 2 * * *"),
		RunBillingOnStartup: getEnvBool("RUN_BILLING_ON_STARTUP", false),
		DefaultCurrency:     strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		BaseCurrency:        strings.ToUpper(getEnv("BASE_CURRENCY", "USD")),
		LogLevel:            logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:           getEnv("LOG_FORMAT", logging.FormatText),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.BillingJobTimeout, err = getEnvDuration("BILLING_JOB_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ExchangeRateTTL, err = getEnvDuration("EXCHANGE_RATE_TTL", time.Hour); err != nil {
		return nil, err
	}

	tz := getEnv("BILLING_TIMEZONE", "UTC")
	if cfg.BillingLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid BILLING_TIMEZONE %q: %w", tz, err)
	}

	rates := getEnv("EXCHANGE_RATES", cfg.BaseCurrency+":1")
	if cfg.ExchangeRates, err = currency.ParseRates(rates); err != nil {
		return nil, fmt.Errorf("invalid EXCHANGE_RATES: %w", err)
	}
	if _, ok := cfg.ExchangeRates[cfg.BaseCurrency]; !ok {
		return nil, fmt.Errorf("invalid EXCHANGE_RATES: base currency %s has no rate", cfg.BaseCurrency)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Ignoring invalid boolean setting", "key", key, "value", value)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
