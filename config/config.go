// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the composition root needs to wire the data layer.
type Config struct {
	// BackendURL is the REST endpoint root, e.g. https://x.example.co/rest/v1.
	BackendURL string

	// BackendAPIKey authenticates every backend request.
	BackendAPIKey string

	// BackendTimeout bounds each backend request.
	BackendTimeout time.Duration

	// QueryCacheTTL is how long cached reads stay fresh.
	QueryCacheTTL time.Duration

	// TenantCacheTTL is how long a resolved tenant stays fresh.
	TenantCacheTTL time.Duration

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		BackendURL:     os.Getenv("BACKEND_URL"),
		BackendAPIKey:  os.Getenv("BACKEND_API_KEY"),
		BackendTimeout: duration("BACKEND_TIMEOUT", 30*time.Second),
		QueryCacheTTL:  duration("QUERY_CACHE_TTL", 5*time.Minute),
		TenantCacheTTL: duration("TENANT_CACHE_TTL", 5*time.Minute),
		LogLevel:       getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// duration reads a duration variable accepting either a Go duration string
// ("30s") or a plain number of seconds.
func duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
