package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishdesk/parishdesk/realtime"
	"github.com/parishdesk/parishdesk/store"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestSyncAppliesEvents(t *testing.T) {
	s := store.New[widget]()
	events := make(chan realtime.Event, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Sync(ctx, s, events, nil)

	events <- realtime.Event{
		Type:  realtime.EventInsert,
		Table: "widgets",
		New:   json.RawMessage(`{"id":"w1","name":"gear","color":"red"}`),
	}
	waitFor(t, func() bool { return s.Len() == 1 })

	events <- realtime.Event{
		Type:  realtime.EventUpdate,
		Table: "widgets",
		Old:   json.RawMessage(`{"id":"w1"}`),
		New:   json.RawMessage(`{"id":"w1","color":"blue"}`),
	}
	waitFor(t, func() bool {
		w, ok := s.Get("w1")
		return ok && w.Color == "blue"
	})
	w, _ := s.Get("w1")
	assert.Equal(t, "gear", w.Name)

	events <- realtime.Event{
		Type:  realtime.EventDelete,
		Table: "widgets",
		Old:   json.RawMessage(`{"id":"w1"}`),
	}
	waitFor(t, func() bool { return s.Len() == 0 })
}

func TestSyncDropsMalformedEvents(t *testing.T) {
	s := store.New[widget]()
	events := make(chan realtime.Event, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Sync(ctx, s, events, nil)

	events <- realtime.Event{
		Type:  realtime.EventInsert,
		Table: "widgets",
		New:   json.RawMessage(`not json`),
	}
	events <- realtime.Event{
		Type:  realtime.EventInsert,
		Table: "widgets",
		New:   json.RawMessage(`{"id":"w2","name":"ok"}`),
	}

	waitFor(t, func() bool { return s.Len() == 1 })
	_, ok := s.Get("w2")
	require.True(t, ok)
}

func TestSyncStopsWhenChannelCloses(t *testing.T) {
	s := store.New[widget]()
	events := make(chan realtime.Event)

	done := make(chan struct{})
	go func() {
		store.Sync(context.Background(), s, events, nil)
		close(done)
	}()

	close(events)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not stop on channel close")
	}
}
