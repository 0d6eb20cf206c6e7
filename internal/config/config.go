package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/erazemk/popis/internal/audit"
)

// Config holds the server configuration.
type Config struct {
	DatabasePath string
	Addr         string
	AdminUser    string
	LogPath      string
	// DevicePrefix is empty unless set explicitly, so a prefix stored in
	// the database can take over.
	DevicePrefix string
	TimeZone     *time.Location
	TokenExpiry  time.Duration
}

// Defaults.
const (
	DefaultDatabasePath = "popis.sqlite3"
	DefaultAddr         = ":8080"
	DefaultAdminUser    = "Admin"
	DefaultTokenExpiry  = 24 * time.Hour
)

// Load reads an optional .env file and then POPIS_* environment variables.
func Load() (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath: getEnv("POPIS_DB", DefaultDatabasePath),
		Addr:         getEnv("POPIS_ADDR", DefaultAddr),
		AdminUser:    getEnv("POPIS_ADMIN_USER", DefaultAdminUser),
		LogPath:      os.Getenv("POPIS_LOG_FILE"),
		DevicePrefix: os.Getenv("POPIS_DEVICE_PREFIX"),
		TimeZone:     time.UTC,
		TokenExpiry:  DefaultTokenExpiry,
	}

	if tz := os.Getenv("POPIS_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("POPIS_TIMEZONE: %w", err)
		}
		cfg.TimeZone = loc
	}

	if exp := os.Getenv("POPIS_TOKEN_EXPIRY"); exp != "" {
		d, err := time.ParseDuration(exp)
		if err != nil {
			return nil, fmt.Errorf("POPIS_TOKEN_EXPIRY: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("POPIS_TOKEN_EXPIRY must be positive")
		}
		cfg.TokenExpiry = d
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize canonicalizes values that may have been set from flags after
// Load. Device codes are upper-case, so is the prefix.
func (c *Config) Normalize() {
	c.DevicePrefix = strings.ToUpper(strings.TrimSpace(c.DevicePrefix))
}

// Prefix returns the device-code prefix, falling back to stored and then
// the built-in default.
func (c *Config) Prefix(stored string) string {
	if c.DevicePrefix != "" {
		return c.DevicePrefix
	}
	if stored != "" {
		return stored
	}
	return audit.DefaultPrefix
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
