// Package cacheinfra adapts the sturdyc in-memory cache to the cache
// package's CacheService contract.
package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the sturdyc tuning parameters.
type Config struct {
	// Capacity is the maximum number of cached entries.
	Capacity int

	// NumShards splits the cache for concurrent access.
	NumShards int

	// TTL is how long an entry stays fresh.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the cache
	// hits capacity, between 1 and 100.
	EvictionPercentage int

	// MissingRecordStorage remembers keys that resolved to no value, so
	// repeated lookups for absent rows skip the backend.
	MissingRecordStorage bool

	// EvictionInterval is how often expired entries are collected. Zero
	// uses sturdyc's default.
	EvictionInterval time.Duration
}

// DefaultConfig matches the query layer's defaults: five-minute TTL,
// missing-record storage on.
func DefaultConfig() Config {
	return Config{
		Capacity:             10000,
		NumShards:            64,
		TTL:                  5 * time.Minute,
		EvictionPercentage:   10,
		MissingRecordStorage: true,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

func (c Config) options() []sturdyc.Option {
	var options []sturdyc.Option
	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "cache config: " + e.Field + " " + e.Message
}

// SturdycService implements cache.CacheService over a sturdyc client.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and builds the service.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.options()...,
	)
	return &SturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key, calling fetch to fill a miss.
// Concurrent misses on the same key are deduplicated by sturdyc.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error) {
	return s.client.GetOrFetch(ctx, key, fetch)
}

// Delete removes one entry.
func (s *SturdycService) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *SturdycService) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys removes the given entries.
func (s *SturdycService) InvalidateKeys(_ context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}
