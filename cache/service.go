package cache

import "context"

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is the read-through cache the query layer decorates reads
// with. Values travel as any; GetOrFetch (the package-level generic) gives
// callers a typed view.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	InvalidateKeys(ctx context.Context, keys []string) error
}

// GetOrFetch is the typed wrapper over CacheService.GetOrFetch.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetch FetchFn[T]) (T, error) {
	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	value, ok := result.(T)
	if !ok {
		var zero T
		return zero, &TypeMismatchError{Key: key}
	}
	return value, nil
}

// TypeMismatchError reports a cached value that no longer matches the type
// the caller expects, which happens when two call sites share a key.
type TypeMismatchError struct {
	Key string
}

func (e *TypeMismatchError) Error() string {
	return "cache: value for key " + e.Key + " has unexpected type"
}
