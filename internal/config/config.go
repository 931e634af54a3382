// Package config centralises configuration parsing for trackerd.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration values for the tracker daemon.
type Config struct {
	HTTPAddress     string
	BackendURL      string
	UIOrigin        string
	RequestTimeout  time.Duration
	RefreshInterval time.Duration // Interval for time-boxed background cache refresh; 0 disables it.
	IdentitySecret  string
	IdentityIssuer  string
	DevBackend      bool // Serve from the in-process backend instead of BackendURL.
}

// Load reads environment variables into Config, applying sensible defaults
// for local dev.
func Load() Config {
	return Config{
		HTTPAddress:     getEnv("HTTP_ADDRESS", ":8090"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:8080"),
		UIOrigin:        getEnv("UI_ORIGIN", "http://localhost:5173"),
		RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
		RefreshInterval: getDurationEnv("CACHE_REFRESH_INTERVAL", 0),
		IdentitySecret:  getEnv("IDENTITY_SECRET", "dev-secret-change-me"),
		IdentityIssuer:  getEnv("IDENTITY_ISSUER", "caffeinepub.identity"),
		DevBackend:      getBoolEnv("DEV_BACKEND", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
