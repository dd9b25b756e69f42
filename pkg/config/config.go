package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Price data source (Gemini public market data API)
	GeminiBaseURL string

	// Price fetch retry policy
	PriceRequestTimeout    time.Duration
	PriceMaxRetries        int
	PriceInitialBackoff    time.Duration
	PriceMaxBackoff        time.Duration
	PriceBackoffMultiplier float64

	// Candle cache
	CacheNumCounters int64
	CacheMaxCost     int64
	CacheBufferItems int64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Price source defaults
		GeminiBaseURL: getEnvOrDefault("GEMINI_API_URL", "https://api.gemini.com"),

		// Retry defaults
		PriceRequestTimeout:    getDurationOrDefault("PRICE_REQUEST_TIMEOUT", 10*time.Second),
		PriceMaxRetries:        getIntOrDefault("PRICE_MAX_RETRIES", 3),
		PriceInitialBackoff:    getDurationOrDefault("PRICE_INITIAL_BACKOFF", 500*time.Millisecond),
		PriceMaxBackoff:        getDurationOrDefault("PRICE_MAX_BACKOFF", 10*time.Second),
		PriceBackoffMultiplier: getFloat64OrDefault("PRICE_BACKOFF_MULTIPLIER", 2.0),

		// Cache defaults: one entry per (pair, granularity) series,
		// so the item count stays small
		CacheNumCounters: getInt64OrDefault("CACHE_NUM_COUNTERS", 10000),
		CacheMaxCost:     getInt64OrDefault("CACHE_MAX_COST", 1000),
		CacheBufferItems: getInt64OrDefault("CACHE_BUFFER_ITEMS", 64),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "cryptotaxes"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "cryptotaxes"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "cryptotaxes"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.GeminiBaseURL == "" {
		return fmt.Errorf("GEMINI_API_URL cannot be empty")
	}

	if c.PriceMaxRetries < 0 {
		return fmt.Errorf("PRICE_MAX_RETRIES must be >= 0, got %d", c.PriceMaxRetries)
	}

	if c.PriceBackoffMultiplier < 1.0 {
		return fmt.Errorf("PRICE_BACKOFF_MULTIPLIER must be >= 1.0, got %f", c.PriceBackoffMultiplier)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
