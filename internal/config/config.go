// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/zapponejosh/wheel/internal/calendar"
	"github.com/zapponejosh/wheel/internal/solar"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Cache
	CacheBackend string // memory, sqlite
	CachePath    string // SQLite path for the sqlite backend

	// Wheel computation
	Rule       calendar.MidpointRule // cross-quarter midpoint rule
	SolarModel string                // meeus, sunrise
	Workers    int                   // concurrent event searches per wheel
	UTCOffset  *float64              // display offset in hours; nil means local

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text, tint
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Cache backends
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

// Log formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatTint = "tint"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	LoadDotEnv()

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads a .env file into the process environment if one
// exists. Variables already set are not overridden.
func LoadDotEnv() {
	// Ignore error if not found; a no-op in production where env vars
	// are set directly
	_ = godotenv.Load()
}

// FromEnv builds a Config from getenv without validating it. Values that
// cannot be parsed are reported as errors rather than silently defaulted.
func FromEnv(getenv func(string) string) (*Config, error) {
	var errs []error
	env := func(key, defaultValue string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return defaultValue
	}

	cfg := &Config{}

	// Server settings
	port, err := envInt(getenv, "PORT", 8080)
	errs = append(errs, err)
	cfg.Port = port
	cfg.Env = env("ENV", EnvDevelopment)

	// Cache
	cfg.CacheBackend = env("CACHE_BACKEND", CacheMemory)
	cfg.CachePath = env("CACHE_PATH", ":memory:")

	// Wheel computation
	rule, err := calendar.ParseMidpointRule(getenv("CROSS_QUARTER_RULE"))
	errs = append(errs, err)
	cfg.Rule = rule
	cfg.SolarModel = env("SOLAR_MODEL", solar.DefaultModel)

	workers, err := envInt(getenv, "WORKERS", 6)
	errs = append(errs, err)
	cfg.Workers = workers

	if value := getenv("UTC_OFFSET"); value != "" {
		offset, err := calendar.ParseOffset(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("UTC_OFFSET: %w", err))
		} else {
			cfg.UTCOffset = &offset
		}
	}

	// Logging
	cfg.LogLevel = env("LOG_LEVEL", "info")
	cfg.LogFormat = env("LOG_FORMAT", FormatText)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	// Validate port range
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	// Validate environment
	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	// Validate cache backend
	switch c.CacheBackend {
	case CacheMemory:
	case CacheSQLite:
		if c.CachePath == "" {
			errs = append(errs, errors.New("CACHE_PATH is required for the sqlite cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be one of: memory, sqlite; got %q", c.CacheBackend))
	}

	if _, err := calendar.ParseMidpointRule(string(c.Rule)); err != nil {
		errs = append(errs, fmt.Errorf("CROSS_QUARTER_RULE: %w", err))
	}

	if _, err := solar.Lookup(c.SolarModel); err != nil {
		errs = append(errs, fmt.Errorf("SOLAR_MODEL: %w", err))
	}

	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers))
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	// Validate log format
	switch c.LogFormat {
	case FormatJSON, FormatText, FormatTint:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text, tint; got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Oracle returns the solar model named by SolarModel.
func (c *Config) Oracle() (solar.Oracle, error) {
	return solar.Lookup(c.SolarModel)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// envInt reads an environment variable as an integer with a default fallback.
func envInt(getenv func(string) string, key string, defaultValue int) (int, error) {
	value := getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
