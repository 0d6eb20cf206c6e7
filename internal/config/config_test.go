package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"POPIS_DB", "POPIS_ADDR", "POPIS_ADMIN_USER", "POPIS_LOG_FILE",
		"POPIS_DEVICE_PREFIX", "POPIS_TIMEZONE", "POPIS_TOKEN_EXPIRY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != DefaultDatabasePath || cfg.Addr != DefaultAddr || cfg.AdminUser != DefaultAdminUser {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.TimeZone != time.UTC {
		t.Errorf("expected UTC, got %v", cfg.TimeZone)
	}
	if cfg.TokenExpiry != DefaultTokenExpiry {
		t.Errorf("expected %v, got %v", DefaultTokenExpiry, cfg.TokenExpiry)
	}
	if got := cfg.Prefix(""); got != "CHR" {
		t.Errorf("expected default prefix CHR, got %q", got)
	}
	if got := cfg.Prefix("LAB"); got != "LAB" {
		t.Errorf("expected stored prefix LAB, got %q", got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POPIS_DB", "/tmp/audit.db")
	t.Setenv("POPIS_ADDR", "127.0.0.1:9000")
	t.Setenv("POPIS_DEVICE_PREFIX", " sch ")
	t.Setenv("POPIS_TIMEZONE", "Europe/Lisbon")
	t.Setenv("POPIS_TOKEN_EXPIRY", "8h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/audit.db" || cfg.Addr != "127.0.0.1:9000" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if got := cfg.Prefix("LAB"); got != "SCH" {
		t.Errorf("expected configured prefix SCH, got %q", got)
	}
	if cfg.TimeZone.String() != "Europe/Lisbon" {
		t.Errorf("expected Europe/Lisbon, got %v", cfg.TimeZone)
	}
	if cfg.TokenExpiry != 8*time.Hour {
		t.Errorf("expected 8h, got %v", cfg.TokenExpiry)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("POPIS_TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown time zone")
	}

	t.Setenv("POPIS_TIMEZONE", "")
	t.Setenv("POPIS_TOKEN_EXPIRY", "-1h")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative expiry")
	}
	t.Setenv("POPIS_TOKEN_EXPIRY", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable expiry")
	}
}

func TestNormalizeFlagPrefix(t *testing.T) {
	t.Setenv("POPIS_DEVICE_PREFIX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// As set by -p after Load.
	cfg.DevicePrefix = " lab "
	cfg.Normalize()
	if got := cfg.Prefix("CHR"); got != "LAB" {
		t.Errorf("expected flag prefix LAB, got %q", got)
	}
}
