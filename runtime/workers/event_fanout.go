package workers

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain/event"
)

// EventFanout drains the hub's async event channel into the side-effect
// sinks (search index, monitoring timeline).
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker.
// Session delivery does NOT pass through here; that happens synchronously
// inside the hub so the persist-then-broadcast invariant holds.
type EventFanout struct {
	Log    *slog.Logger
	Events <-chan event.DomainEvent
	sinks  []contract.EventSink
}

func NewEventFanout(log *slog.Logger, events <-chan event.DomainEvent, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{Log: log, Events: events, sinks: sinks}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.Log.Debug("Context done, stopping fanout")
			return nil
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout delivers one event to every sink. A sink error is logged and the
// remaining sinks still receive the event.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, evt); err != nil {
			w.Log.Warn("sink failed", "err", err)
		}
	}
}
