package service

import (
	"context"

	"github.com/parishdesk/parishdesk/realtime"
	"github.com/parishdesk/parishdesk/store"
)

// StartRealtime subscribes this service to live change events for its table,
// narrowed to the given tenant. Events keep the entity store current and
// drop every cached read for the table, since any remote change can
// invalidate any cached list. The returned stop function ends the
// subscription.
func (s *Service[T]) StartRealtime(ctx context.Context, source realtime.Source, tenantID string) (func(), error) {
	filter := ""
	if tenantID != "" {
		filter = "tenant_id=eq." + tenantID
	}

	events, stop, err := source.Subscribe(ctx, s.repo.Table(), filter)
	if err != nil {
		return nil, err
	}

	forward := make(chan realtime.Event, 16)
	go store.Sync(ctx, s.store, forward, s.logger)
	go func() {
		defer close(forward)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				s.invalidate(ctx)
				select {
				case forward <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return stop, nil
}
