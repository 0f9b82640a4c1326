package cache

import (
	"time"

	"github.com/parishdesk/parishdesk/internal/cacheinfra"
)

// Config exposes cache tuning options to the composition root without
// leaking the backing implementation.
type Config struct {
	Capacity             int
	NumShards            int
	TTL                  time.Duration
	EvictionPercentage   int
	MissingRecordStorage bool
	EvictionInterval     time.Duration
}

// DefaultConfig returns the defaults the query layer runs with: five-minute
// TTL, missing-record storage on.
func DefaultConfig() Config {
	return fromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are usable.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewCacheService constructs the default CacheService implementation.
func NewCacheService(cfg Config) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg.toInternal())
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
}

func fromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
}
