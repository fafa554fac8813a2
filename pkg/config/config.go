package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	// Inputs
	SamplesPath    string
	PriceTablePath string
	PolicyPath     string
	PrometheusURL  string

	// Analysis
	LookbackDays int
	FetchTimeout time.Duration
	Concurrency  int

	// Storage
	StorageEnabled bool
	DatabaseURL    string

	// Output
	OutputFormat string // text, json, csv, markdown
	Verbose      bool
}

// NewConfig creates a new configuration with defaults, overridable from the
// environment.
func NewConfig() *Config {
	return &Config{
		SamplesPath:    getEnv("SAMPLES_PATH", ""),
		PriceTablePath: getEnv("PRICE_TABLE_PATH", "prices.yaml"),
		PolicyPath:     getEnv("POLICY_PATH", ""),
		PrometheusURL:  getEnv("PROMETHEUS_URL", ""),
		LookbackDays:   getEnvInt("LOOKBACK_DAYS", 7),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 2*time.Minute),
		Concurrency:    getEnvInt("CONCURRENCY", 8),
		StorageEnabled: getEnvBool("STORAGE_ENABLED", false),
		DatabaseURL:    getEnv("DATABASE_URL", "host=localhost port=5432 user=advisor password=devpassword dbname=costadvisor sslmode=disable"),
		OutputFormat:   getEnv("OUTPUT_FORMAT", "text"),
		Verbose:        getEnvBool("VERBOSE", false),
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.PriceTablePath == "" {
		return fmt.Errorf("PRICE_TABLE_PATH must be set")
	}
	if c.StorageEnabled && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when storage is enabled")
	}
	if c.LookbackDays < 1 {
		return fmt.Errorf("lookback must be at least 1 day")
	}
	if c.FetchTimeout < time.Second {
		return fmt.Errorf("fetch timeout must be at least 1s")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
