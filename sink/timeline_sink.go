package sink

import (
	"context"

	"chat-relay/domain/event"
	"chat-relay/observability"
)

// TimelineSink projects events into the monitoring counters and the
// bounded recent-messages timeline.
type TimelineSink struct {
	monitor *observability.MonitoringManager
}

func NewTimelineSink(monitor *observability.MonitoringManager) TimelineSink {
	return TimelineSink{monitor: monitor}
}

func (s TimelineSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageBroadcast:
		s.monitor.CountBroadcast()
		s.monitor.RecordMessage(evt.Message)
	case event.DeliveryDropped:
		s.monitor.CountDropped()
	}
	return nil
}
