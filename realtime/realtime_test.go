package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestBrokerFansOutByTable(t *testing.T) {
	broker := NewBroker()
	ctx := context.Background()

	members, stopMembers, err := broker.Subscribe(ctx, "members", "")
	require.NoError(t, err)
	defer stopMembers()

	funds, stopFunds, err := broker.Subscribe(ctx, "funds", "")
	require.NoError(t, err)
	defer stopFunds()

	broker.Publish(Event{Type: EventInsert, Table: "members", New: json.RawMessage(`{"id":"m1"}`)})

	got := receive(t, members)
	assert.Equal(t, "m1", got.RowID())

	select {
	case <-funds:
		t.Fatal("funds subscription received a members event")
	default:
	}
}

func TestBrokerAppliesTenantFilter(t *testing.T) {
	broker := NewBroker()

	events, stop, err := broker.Subscribe(context.Background(), "members", "tenant_id=eq.t1")
	require.NoError(t, err)
	defer stop()

	broker.Publish(Event{Type: EventInsert, Table: "members", New: json.RawMessage(`{"id":"other","tenant_id":"t2"}`)})
	broker.Publish(Event{Type: EventInsert, Table: "members", New: json.RawMessage(`{"id":"mine","tenant_id":"t1"}`)})

	got := receive(t, events)
	assert.Equal(t, "mine", got.RowID())
}

func TestRowIDPrefersOldRow(t *testing.T) {
	e := Event{
		Type: EventUpdate,
		Old:  json.RawMessage(`{"id":"before"}`),
		New:  json.RawMessage(`{"id":"after"}`),
	}
	assert.Equal(t, "before", e.RowID())

	insert := Event{Type: EventInsert, New: json.RawMessage(`{"id":"fresh"}`)}
	assert.Equal(t, "fresh", insert.RowID())
}

func TestColumnsDecode(t *testing.T) {
	e := Event{New: json.RawMessage(`{"id":"m1","name":"Ana"}`)}

	columns, err := e.NewColumns()
	require.NoError(t, err)
	assert.Equal(t, "Ana", columns["name"])

	empty, err := Event{}.OldColumns()
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestStopClosesChannel(t *testing.T) {
	broker := NewBroker()

	events, stop, err := broker.Subscribe(context.Background(), "members", "")
	require.NoError(t, err)

	stop()
	_, open := <-events
	assert.False(t, open)

	// Publishing after stop must not panic.
	broker.Publish(Event{Type: EventInsert, Table: "members", New: json.RawMessage(`{"id":"x"}`)})
}
