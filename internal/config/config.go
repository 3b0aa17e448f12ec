// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file

	// Authentication
	APIKey string // guards series mutation routes

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Calendar
	Timezone string // IANA zone for start instants without an offset

	// Holiday sources
	HolidayProvider     string        // remote, builtin
	HolidayAPIURL       string        // remote provider base URL
	HolidayFetchTimeout time.Duration // per-request provider timeout
	HolidayCache        string        // file, sqlite
	HolidayCacheDir     string        // file cache directory
	HolidayCacheTTL     time.Duration // 0 = cached entries never expire
	OverridesPath       string
	AcademicDir         string
	EidTablePath        string
	TemplatesPath       string // empty = embedded defaults

	// Cache warming
	WarmCron    string   // empty disables warming
	WarmRegions []string // upper-cased region codes

	parseErrs []error
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Holiday provider and cache backends
const (
	ProviderRemote  = "remote"
	ProviderBuiltin = "builtin"

	CacheFile   = "file"
	CacheSQLite = "sqlite"
)

// Load reads configuration from environment variables.
// It first loads a .env file if present.
func Load() (*Config, error) {
	// No-op in production where env vars are set directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Database
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/calendar.db")

	// Authentication
	cfg.APIKey = getEnv("API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	cfg.Timezone = getEnv("TIMEZONE", "UTC")

	// Holiday sources
	cfg.HolidayProvider = getEnv("HOLIDAY_PROVIDER", ProviderRemote)
	cfg.HolidayAPIURL = getEnv("HOLIDAY_API_URL", "https://date.nager.at/api/v3/PublicHolidays")
	cfg.HolidayFetchTimeout = cfg.getEnvDuration("HOLIDAY_FETCH_TIMEOUT", 5*time.Second)
	cfg.HolidayCache = getEnv("HOLIDAY_CACHE", CacheFile)
	cfg.HolidayCacheDir = getEnv("HOLIDAY_CACHE_DIR", "./data/holidays")
	cfg.HolidayCacheTTL = cfg.getEnvDuration("HOLIDAY_CACHE_TTL", 720*time.Hour)
	cfg.OverridesPath = getEnv("OVERRIDES_PATH", "./data/holidays/overrides.json")
	cfg.AcademicDir = getEnv("ACADEMIC_DIR", "./data/holidays/academic")
	cfg.EidTablePath = getEnv("EID_TABLE_PATH", "./data/holidays/eid.json")
	cfg.TemplatesPath = getEnv("TEMPLATES_PATH", "")

	// Cache warming
	cfg.WarmCron = getEnv("WARM_CRON", "")
	cfg.WarmRegions = splitList(getEnv("WARM_REGIONS", ""))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// API key is required in production; development runs open.
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}

	switch c.HolidayProvider {
	case ProviderRemote:
		if c.HolidayAPIURL == "" {
			errs = append(errs, errors.New("HOLIDAY_API_URL is required for the remote provider"))
		}
	case ProviderBuiltin:
	default:
		errs = append(errs, fmt.Errorf("HOLIDAY_PROVIDER must be one of: remote, builtin; got %q", c.HolidayProvider))
	}

	if c.HolidayFetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HOLIDAY_FETCH_TIMEOUT must be positive, got %s", c.HolidayFetchTimeout))
	}
	if c.HolidayCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("HOLIDAY_CACHE_TTL must not be negative, got %s", c.HolidayCacheTTL))
	}

	switch c.HolidayCache {
	case CacheFile:
		if c.HolidayCacheDir == "" {
			errs = append(errs, errors.New("HOLIDAY_CACHE_DIR is required for the file cache"))
		}
	case CacheSQLite:
	default:
		errs = append(errs, fmt.Errorf("HOLIDAY_CACHE must be one of: file, sqlite; got %q", c.HolidayCache))
	}

	if c.WarmCron != "" {
		if _, err := cron.ParseStandard(c.WarmCron); err != nil {
			errs = append(errs, fmt.Errorf("WARM_CRON %q: %w", c.WarmCron, err))
		}
		if len(c.WarmRegions) == 0 {
			errs = append(errs, errors.New("WARM_REGIONS is required when WARM_CRON is set"))
		}
	}
	for _, r := range c.WarmRegions {
		if !isRegionCode(r) {
			errs = append(errs, fmt.Errorf("WARM_REGIONS: %q is not a two-letter region code", r))
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location returns the configured default zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration reads a Go duration. Unparseable values are reported by
// Validate instead of silently falling back.
func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

// splitList splits a comma-separated list, upper-cases and drops blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isRegionCode(s string) bool {
	return len(s) == 2 && s[0] >= 'A' && s[0] <= 'Z' && s[1] >= 'A' && s[1] <= 'Z'
}
