// Package realtime defines the change-event contract the entity store
// consumes, plus an in-memory broker used by tests and examples. The live
// transport (the backend's change channel) sits behind the Source interface
// and is wired by the application.
package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// EventType is the kind of row change an event describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Event is one row change on a table. New carries the row after the change
// (insert/update), Old the row before it (update/delete); either may be
// empty depending on the event type.
type Event struct {
	Type  EventType
	Table string
	New   json.RawMessage
	Old   json.RawMessage
}

// NewColumns decodes the post-change row into a column map.
func (e Event) NewColumns() (map[string]any, error) {
	return decodeColumns(e.New)
}

// OldColumns decodes the pre-change row into a column map.
func (e Event) OldColumns() (map[string]any, error) {
	return decodeColumns(e.Old)
}

// RowID returns the affected row's id, preferring the pre-change row so
// updates and deletes address the entry already in the store.
func (e Event) RowID() string {
	if id := columnString(e.Old, "id"); id != "" {
		return id
	}
	return columnString(e.New, "id")
}

func decodeColumns(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var columns map[string]any
	if err := json.Unmarshal(raw, &columns); err != nil {
		return nil, err
	}
	return columns, nil
}

func columnString(raw json.RawMessage, column string) string {
	columns, err := decodeColumns(raw)
	if err != nil || columns == nil {
		return ""
	}
	if v, ok := columns[column].(string); ok {
		return v
	}
	return ""
}

// Source delivers change events for one table, optionally narrowed by a row
// predicate of the form "column=eq.value" (typically the tenant filter).
// The returned stop function tears the subscription down.
type Source interface {
	Subscribe(ctx context.Context, table, filter string) (<-chan Event, func(), error)
}

// Broker is an in-memory Source. Published events are fanned out to every
// subscription whose table and filter match.
type Broker struct {
	mu   sync.Mutex
	subs []*subscription
}

type subscription struct {
	table  string
	column string
	value  string
	ch     chan Event
	closed bool
}

// NewBroker builds an empty broker.
func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe implements Source.
func (b *Broker) Subscribe(ctx context.Context, table, filter string) (<-chan Event, func(), error) {
	sub := &subscription{
		table: table,
		ch:    make(chan Event, 16),
	}
	sub.column, sub.value = parseFilter(filter)

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	stop := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	return sub.ch, stop, nil
}

// Publish fans the event out to matching subscriptions.
func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub.closed || sub.table != event.Table {
			continue
		}
		if sub.column != "" && !matches(event, sub.column, sub.value) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Slow consumer; drop rather than block the publisher.
		}
	}
}

// parseFilter understands the "column=eq.value" row predicate shape.
func parseFilter(filter string) (column, value string) {
	if filter == "" {
		return "", ""
	}
	parts := strings.SplitN(filter, "=eq.", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func matches(event Event, column, value string) bool {
	if v := columnString(event.New, column); v != "" {
		return v == value
	}
	return columnString(event.Old, column) == value
}
