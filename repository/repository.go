// Package repository layers domain rules over the entity adapter. A
// repository owns validation, input formatting and domain-level side
// effects for one entity type; the adapter underneath owns tenant scoping,
// stamping and the wire protocol. Validation failures stop a mutation
// before any backend request is issued.
package repository

import (
	"context"

	"github.com/parishdesk/parishdesk/adapter"
	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/query"
)

// Repository is the domain-facing data access contract for one entity type.
type Repository[T entity.Model] interface {
	Find(ctx context.Context, opts query.Options) (adapter.Result[T], error)
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id string, opts query.Options) (*T, error)
	Exists(ctx context.Context, filters query.Filters) (bool, error)
	Create(ctx context.Context, data entity.Partial) (*T, error)
	Update(ctx context.Context, id string, data entity.Partial) (*T, error)
	Delete(ctx context.Context, id string) error
	Table() string
}

// Hooks are the domain extension points a concrete repository plugs in.
// Before hooks run ahead of the adapter pipeline and may rewrite the
// payload or reject it; after hooks run once the mutation has succeeded.
type Hooks[T entity.Model] struct {
	BeforeCreate func(ctx context.Context, data entity.Partial) (entity.Partial, error)
	AfterCreate  func(ctx context.Context, record T) error
	BeforeUpdate func(ctx context.Context, id string, data entity.Partial) (entity.Partial, error)
	AfterUpdate  func(ctx context.Context, record T) error
	BeforeDelete func(ctx context.Context, id string) error
	AfterDelete  func(ctx context.Context, id string) error
}

// Base implements Repository over an adapter, threading the domain hooks
// through every mutation. Concrete repositories embed or wrap it.
type Base[T entity.Model] struct {
	adapter *adapter.Adapter[T]
	hooks   Hooks[T]
}

// New builds a Base repository.
func New[T entity.Model](a *adapter.Adapter[T], hooks Hooks[T]) *Base[T] {
	return &Base[T]{adapter: a, hooks: hooks}
}

// Table returns the backend table this repository reads and writes.
func (r *Base[T]) Table() string { return r.adapter.Table() }

// Adapter exposes the underlying adapter for relation operations.
func (r *Base[T]) Adapter() *adapter.Adapter[T] { return r.adapter }

// Find runs a tenant-scoped list read.
func (r *Base[T]) Find(ctx context.Context, opts query.Options) (adapter.Result[T], error) {
	return r.adapter.Fetch(ctx, opts)
}

// FindAll returns every live record, unpaginated.
func (r *Base[T]) FindAll(ctx context.Context) ([]T, error) {
	result, err := r.adapter.Fetch(ctx, query.Options{})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// FindByID returns one record, or nil when it does not exist.
func (r *Base[T]) FindByID(ctx context.Context, id string, opts query.Options) (*T, error) {
	return r.adapter.FetchByID(ctx, id, opts)
}

// Exists reports whether any live record matches the filters.
func (r *Base[T]) Exists(ctx context.Context, filters query.Filters) (bool, error) {
	return r.adapter.Exists(ctx, filters)
}

// Create validates and inserts a record.
func (r *Base[T]) Create(ctx context.Context, data entity.Partial) (*T, error) {
	if hook := r.hooks.BeforeCreate; hook != nil {
		var err error
		if data, err = hook(ctx, data); err != nil {
			return nil, err
		}
	}
	record, err := r.adapter.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	if hook := r.hooks.AfterCreate; hook != nil {
		if err := hook(ctx, *record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// CreateWithRelations validates and inserts a record, then relinks the named
// relations to the given id lists.
func (r *Base[T]) CreateWithRelations(ctx context.Context, data entity.Partial, relations map[string][]string) (*T, error) {
	if hook := r.hooks.BeforeCreate; hook != nil {
		var err error
		if data, err = hook(ctx, data); err != nil {
			return nil, err
		}
	}
	record, err := r.adapter.CreateWithRelations(ctx, data, relations)
	if err != nil {
		return record, err
	}
	if hook := r.hooks.AfterCreate; hook != nil {
		if err := hook(ctx, *record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// Update validates and patches a record.
func (r *Base[T]) Update(ctx context.Context, id string, data entity.Partial) (*T, error) {
	if hook := r.hooks.BeforeUpdate; hook != nil {
		var err error
		if data, err = hook(ctx, id, data); err != nil {
			return nil, err
		}
	}
	record, err := r.adapter.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	if hook := r.hooks.AfterUpdate; hook != nil {
		if err := hook(ctx, *record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// UpdateWithRelations validates and patches a record, then relinks the named
// relations.
func (r *Base[T]) UpdateWithRelations(ctx context.Context, id string, data entity.Partial, relations map[string][]string) (*T, error) {
	if hook := r.hooks.BeforeUpdate; hook != nil {
		var err error
		if data, err = hook(ctx, id, data); err != nil {
			return nil, err
		}
	}
	record, err := r.adapter.UpdateWithRelations(ctx, id, data, relations)
	if err != nil {
		return record, err
	}
	if hook := r.hooks.AfterUpdate; hook != nil {
		if err := hook(ctx, *record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// Delete soft-deletes a record.
func (r *Base[T]) Delete(ctx context.Context, id string) error {
	if hook := r.hooks.BeforeDelete; hook != nil {
		if err := hook(ctx, id); err != nil {
			return err
		}
	}
	if err := r.adapter.Delete(ctx, id); err != nil {
		return err
	}
	if hook := r.hooks.AfterDelete; hook != nil {
		return hook(ctx, id)
	}
	return nil
}
