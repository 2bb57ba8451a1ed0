package config

import (
	"os"
	"strings"
	"time"
)

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// KeepAliveEnabled toggles the store heartbeat task.
//
// Set via env:
// - KEEPALIVE_ENABLED=false
func KeepAliveEnabled() bool {
	return boolFromEnv("KEEPALIVE_ENABLED", true)
}

// KeepAliveInterval defaults to 36h.
//
// Set via env:
// - KEEPALIVE_INTERVAL_HOURS=36
func KeepAliveInterval() time.Duration {
	h := IntFromEnv("KEEPALIVE_INTERVAL_HOURS", 36)
	if h <= 0 {
		h = 36
	}
	return time.Duration(h) * time.Hour
}

// SkipMigrations disables AutoMigrate on startup.
func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS", false)
}

// IsProduction reports GO_ENV=production.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// CompanyName is the sender printed on delivery notes.
func CompanyName() string {
	if v := strings.TrimSpace(os.Getenv("COMPANY_NAME")); v != "" {
		return v
	}
	return "NEXUS VENDING"
}

// PhoneRegion enables libphonenumber validation of supplier phones when set
// (ISO 3166 region, e.g. AR).
func PhoneRegion() string {
	return strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_REGION")))
}
