// Package store keeps an in-memory, per-entity-type snapshot of fetched
// records, keyed by id. It backs optimistic UI reads and stays current
// through both fetch results and realtime change events.
package store

import (
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/parishdesk/parishdesk/entity"
)

// Store is a keyed snapshot of one entity type. All operations are single
// map mutations, safe for concurrent use.
type Store[T entity.Model] struct {
	entities *xsync.MapOf[string, T]
}

// New builds an empty store.
func New[T entity.Model]() *Store[T] {
	return &Store[T]{entities: xsync.NewMapOf[string, T]()}
}

// Add upserts a record by id. Records without an id are ignored.
func (s *Store[T]) Add(record T) {
	id := record.GetID()
	if id == "" {
		return
	}
	s.entities.Store(id, record)
}

// Update shallow-merges a partial into the record with the given id. A
// missing key is a silent no-op, not an error: the store only tracks rows it
// has already seen.
func (s *Store[T]) Update(id string, partial entity.Partial) {
	existing, ok := s.entities.Load(id)
	if !ok {
		return
	}
	merged, err := entity.Merge(existing, partial)
	if err != nil {
		return
	}
	s.entities.Store(id, merged)
}

// Remove deletes the record with the given id.
func (s *Store[T]) Remove(id string) {
	s.entities.Delete(id)
}

// Get returns the record with the given id.
func (s *Store[T]) Get(id string) (T, bool) {
	return s.entities.Load(id)
}

// All returns a snapshot of every record in the store.
func (s *Store[T]) All() []T {
	out := make([]T, 0, s.entities.Size())
	s.entities.Range(func(_ string, record T) bool {
		out = append(out, record)
		return true
	})
	return out
}

// Len returns the number of records held.
func (s *Store[T]) Len() int {
	return s.entities.Size()
}

// Clear empties the store.
func (s *Store[T]) Clear() {
	s.entities.Clear()
}
