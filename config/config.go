// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int
	DatasetFile       string // Path to the local DRAP dataset JSON file
	DatasetURL        string // Optional remote source to refresh the dataset from
	ReportsDB         string // Path to the SQLite report store
	OpenFDABaseURL    string // Override for tests; empty selects the public API
	MaxRequestBody    int64  // Maximum request body size in bytes
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               getEnvWithDefault("ENV", "dev"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		DatasetFile:       getEnvWithDefault("DATASET_FILE", "drap_drugs.json"),
		DatasetURL:        os.Getenv("DATASET_URL"),
		ReportsDB:         getEnvWithDefault("REPORTS_DB", "mediscan_reports.db"),
		OpenFDABaseURL:    os.Getenv("OPENFDA_BASE_URL"),
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateOneOf(cfg.Env, "ENV", []string{"dev", "staging", "prod", "test"}); err != nil {
		return err
	}

	if err := validateOneOf(cfg.LogLevel, "LOG_LEVEL", []string{"debug", "info", "warn", "error"}); err != nil {
		return err
	}

	if cfg.LogRetentionWeeks <= 0 || cfg.LogRetentionWeeks > 52 {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: must be between 1 and 52, got %d", cfg.LogRetentionWeeks)
	}

	if cfg.DatasetFile == "" {
		return fmt.Errorf("invalid DATASET_FILE: cannot be empty")
	}

	if cfg.ReportsDB == "" {
		return fmt.Errorf("invalid REPORTS_DB: cannot be empty")
	}

	if cfg.MaxRequestBody <= 0 || cfg.MaxRequestBody > 100*1024*1024 {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: must be between 1 and 100MB, got %d", cfg.MaxRequestBody)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateOneOf checks that a value (lowercased) is in the allowed set
func validateOneOf(value, name string, allowed []string) error {
	if value == "" {
		return fmt.Errorf("invalid %s: cannot be empty", name)
	}

	value = strings.ToLower(value)
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}

	return fmt.Errorf("invalid %s: must be one of %v, got: %s", name, allowed, value)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
