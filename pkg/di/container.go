// Package di is the composition root: it wires configuration, the backend
// client, tenant resolution, the cache and the entity services into one
// container the application pulls from.
package di

import (
	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/cache"
	"github.com/parishdesk/parishdesk/churchdata"
	"github.com/parishdesk/parishdesk/config"
	"github.com/parishdesk/parishdesk/logger"
	"github.com/parishdesk/parishdesk/notify"
	"github.com/parishdesk/parishdesk/postgrest"
	"github.com/parishdesk/parishdesk/tenant"
)

// Container holds the singleton instances of the data layer.
type Container struct {
	cfg      config.Config
	log      *zap.Logger
	client   *postgrest.Client
	tenants  *tenant.Service
	cache    cache.CacheService
	notifier notify.Notifier
	entities *churchdata.Registry
}

// NewContainer wires a container from the given configuration.
func NewContainer(cfg config.Config) (*Container, error) {
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	client := postgrest.New(postgrest.Config{
		BaseURL: cfg.BackendURL,
		APIKey:  cfg.BackendAPIKey,
		Timeout: cfg.BackendTimeout,
		Logger:  log,
	})

	tenants := tenant.NewService(tenant.NewRPCResolver(client), cfg.TenantCacheTTL, log)

	cacheCfg := cache.DefaultConfig()
	if cfg.QueryCacheTTL > 0 {
		cacheCfg.TTL = cfg.QueryCacheTTL
	}
	cacheService, err := cache.NewCacheService(cacheCfg)
	if err != nil {
		return nil, err
	}

	notifier := notify.NewLogNotifier(log)

	entities := churchdata.New(churchdata.Deps{
		Client:   client,
		Tenants:  tenants,
		Cache:    cacheService,
		Notifier: notifier,
		Logger:   log,
	})

	return &Container{
		cfg:      cfg,
		log:      log,
		client:   client,
		tenants:  tenants,
		cache:    cacheService,
		notifier: notifier,
		entities: entities,
	}, nil
}

// NewContainerFromEnv wires a container from the process environment.
func NewContainerFromEnv() (*Container, error) {
	return NewContainer(config.Load())
}

// Logger returns the process logger.
func (c *Container) Logger() *zap.Logger { return c.log }

// Client returns the backend client.
func (c *Container) Client() *postgrest.Client { return c.client }

// Tenants returns the tenant resolution service.
func (c *Container) Tenants() *tenant.Service { return c.tenants }

// CacheService returns the shared read-through cache.
func (c *Container) CacheService() cache.CacheService { return c.cache }

// Notifier returns the user-facing notifier.
func (c *Container) Notifier() notify.Notifier { return c.notifier }

// Entities returns the wired entity services.
func (c *Container) Entities() *churchdata.Registry { return c.entities }

// Config returns a copy of the configuration the container was built from.
func (c *Container) Config() config.Config { return c.cfg }
