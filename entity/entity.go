// Package entity holds the invariant fields every persisted record carries
// and the small helpers the store and adapters share for working with
// partial (column keyed) payloads.
package entity

import (
	"encoding/json"
	"time"
)

// Model is implemented by every persisted record type.
type Model interface {
	GetID() string
}

// Entity is embedded by every tenant-scoped record. The backend assigns id
// and timestamps; tenant_id is stamped at creation and immutable afterwards.
// A non-nil deleted_at marks the row soft deleted: physically retained but
// excluded from all default reads.
type Entity struct {
	ID        string     `json:"id,omitempty"`
	TenantID  string     `json:"tenant_id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// GetID implements Model.
func (e Entity) GetID() string { return e.ID }

// GetTenantID returns the owning tenant id.
func (e Entity) GetTenantID() string { return e.TenantID }

// Deleted reports whether the record is soft deleted.
func (e Entity) Deleted() bool { return e.DeletedAt != nil }

// Partial is a column-keyed payload, the shape mutations travel in.
type Partial = map[string]any

// Merge shallow-merges a partial into a typed record: columns present in the
// partial replace the record's values, everything else is unchanged. The
// merge goes through the record's JSON representation so column names line up
// with the wire format.
func Merge[T Model](record T, partial Partial) (T, error) {
	var merged T

	raw, err := json.Marshal(record)
	if err != nil {
		return merged, err
	}

	var columns map[string]any
	if err := json.Unmarshal(raw, &columns); err != nil {
		return merged, err
	}
	for key, value := range partial {
		columns[key] = value
	}

	raw, err = json.Marshal(columns)
	if err != nil {
		return merged, err
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return merged, err
	}
	return merged, nil
}

// Strip returns a copy of the partial without the named fields. It is used
// to drop UI-only nested objects before persistence and to protect identity
// columns on update.
func Strip(data Partial, fields ...string) Partial {
	if data == nil {
		return nil
	}
	out := make(Partial, len(data))
	for key, value := range data {
		out[key] = value
	}
	for _, field := range fields {
		delete(out, field)
	}
	return out
}
