package store

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/parishdesk/parishdesk/entity"
	"github.com/parishdesk/parishdesk/realtime"
)

// Sync consumes change events for one table and applies them to the store:
// inserts are added, updates merged into existing entries, deletes removed.
// It returns when the context is cancelled or the event channel closes.
func Sync[T entity.Model](ctx context.Context, s *Store[T], events <-chan realtime.Event, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			apply(s, event, logger)
		}
	}
}

func apply[T entity.Model](s *Store[T], event realtime.Event, logger *zap.Logger) {
	switch event.Type {
	case realtime.EventInsert:
		var record T
		if err := json.Unmarshal(event.New, &record); err != nil {
			logger.Warn("dropping malformed insert event",
				zap.String("table", event.Table), zap.Error(err))
			return
		}
		s.Add(record)
	case realtime.EventUpdate:
		partial, err := event.NewColumns()
		if err != nil {
			logger.Warn("dropping malformed update event",
				zap.String("table", event.Table), zap.Error(err))
			return
		}
		s.Update(event.RowID(), partial)
	case realtime.EventDelete:
		s.Remove(event.RowID())
	}
}
