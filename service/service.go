// Package service is the application-facing data layer: repository access
// decorated with a read-through cache, a keyed entity store, user-facing
// notifications and coarse cache invalidation on every mutation.
package service

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/apperr"
	"github.com/parishdesk/parishdesk/cache"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/metrics"
	"github.com/parishdesk/parishdesk/notify"
	"github.com/parishdesk/parishdesk/query"
	"github.com/parishdesk/parishdesk/repository"
	"github.com/parishdesk/parishdesk/store"
)

// Service decorates a repository with caching, store upkeep and
// notifications. Reads are cached per table+arguments; any successful
// mutation invalidates every cached read for the table, trading precision
// for the guarantee that no stale list survives a write.
type Service[T entity.Model] struct {
	repo     repository.Repository[T]
	cache    cache.CacheService
	keys     cache.KeySerializer
	registry *xsync.MapOf[string, struct{}]
	store    *store.Store[T]
	notifier notify.Notifier
	logger   *zap.Logger
}

// New builds a Service over the given repository. A nil notifier discards
// notifications.
func New[T entity.Model](repo repository.Repository[T], cacheService cache.CacheService, notifier notify.Notifier, logger *zap.Logger) *Service[T] {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service[T]{
		repo:     repo,
		cache:    cacheService,
		keys:     cache.NewKeySerializer(),
		registry: xsync.NewMapOf[string, struct{}](),
		store:    store.New[T](),
		notifier: notifier,
		logger:   logger.With(zap.String("table", repo.Table())),
	}
}

// Store exposes the keyed entity snapshot this service maintains.
func (s *Service[T]) Store() *store.Store[T] { return s.store }

// Table returns the backend table this service serves.
func (s *Service[T]) Table() string { return s.repo.Table() }

// Find runs a cached list read. Failures are reported to the notifier and
// come back as an empty result, so list surfaces degrade instead of
// erroring; callers that need the failure use the repository directly.
func (s *Service[T]) Find(ctx context.Context, opts query.Options) adapter.Result[T] {
	if opts.Disabled() {
		return adapter.Result[T]{Data: []T{}}
	}

	key := s.trackKey("Find", opts)
	metrics.QueryCacheLookups.WithLabelValues(s.repo.Table()).Inc()

	result, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (adapter.Result[T], error) {
		metrics.QueryCacheMisses.WithLabelValues(s.repo.Table()).Inc()
		return s.repo.Find(ctx, opts)
	})
	if err != nil {
		s.logger.Error("list read failed", zap.Error(err))
		s.notifier.Error(apperr.UserMessage(err))
		return adapter.Result[T]{Data: []T{}}
	}

	for _, record := range result.Data {
		s.store.Add(record)
	}
	return result
}

// FindByID runs a cached single-record read. A missing record and a failed
// read both come back nil; failures are additionally reported.
func (s *Service[T]) FindByID(ctx context.Context, id string, opts query.Options) *T {
	key := s.trackKey("FindByID", id, opts)
	metrics.QueryCacheLookups.WithLabelValues(s.repo.Table()).Inc()

	record, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) (*T, error) {
		metrics.QueryCacheMisses.WithLabelValues(s.repo.Table()).Inc()
		return s.repo.FindByID(ctx, id, opts)
	})
	if err != nil {
		s.logger.Error("single read failed", zap.String("id", id), zap.Error(err))
		s.notifier.Error(apperr.UserMessage(err))
		return nil
	}

	if record != nil {
		s.store.Add(*record)
	}
	return record
}

// Create inserts a record, invalidates cached reads for the table and
// notifies the outcome.
func (s *Service[T]) Create(ctx context.Context, data entity.Partial) (*T, error) {
	record, err := s.repo.Create(ctx, data)
	if err != nil {
		s.notifier.Error(apperr.UserMessage(err))
		return nil, err
	}

	s.invalidate(ctx)
	s.store.Add(*record)
	s.notifier.Success("Record created successfully")
	return record, nil
}

// Update patches a record, invalidates cached reads for the table and
// notifies the outcome.
func (s *Service[T]) Update(ctx context.Context, id string, data entity.Partial) (*T, error) {
	record, err := s.repo.Update(ctx, id, data)
	if err != nil {
		s.notifier.Error(apperr.UserMessage(err))
		return nil, err
	}

	s.invalidate(ctx)
	s.store.Add(*record)
	s.notifier.Success("Record updated successfully")
	return record, nil
}

// Delete soft-deletes a record, invalidates cached reads for the table and
// notifies the outcome.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.notifier.Error(apperr.UserMessage(err))
		return err
	}

	s.invalidate(ctx)
	s.store.Remove(id)
	s.notifier.Success("Record deleted successfully")
	return nil
}

// Invalidate drops every cached read for this table. Mutations call it
// automatically; it is exported for side channels such as relation updates
// that bypass the service's own mutation methods.
func (s *Service[T]) Invalidate(ctx context.Context) {
	s.invalidate(ctx)
}

// trackKey builds the cache key for a read and registers it for
// invalidation. Keys lead with the table so invalidation is one prefix
// sweep.
func (s *Service[T]) trackKey(method string, args ...any) string {
	serializerArgs := append([]any{method}, args...)
	key := s.keys.SerializeKey(s.repo.Table(), serializerArgs...)
	s.registry.Store(key, struct{}{})
	return key
}

// invalidate drops every cached read for this table.
func (s *Service[T]) invalidate(ctx context.Context) {
	prefix := s.repo.Table() + cache.KeySeparator
	if err := s.cache.DeleteByPrefix(ctx, prefix); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
	s.registry.Range(func(key string, _ struct{}) bool {
		s.registry.Delete(key)
		return true
	})
}
