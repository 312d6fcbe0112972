// Package sink holds the side-effect consumers fed by the async event
// fanout: search indexing and the monitoring timeline.
package sink

import (
	"context"
	"fmt"
	"log/slog"

	"chat-relay/domain/event"
	"chat-relay/repositories"
)

type IndexSink struct {
	index repositories.ISearchIndex
	log   *slog.Logger
}

func NewIndexSink(index repositories.ISearchIndex, log *slog.Logger) IndexSink {
	return IndexSink{index: index, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageBroadcast:
		return s.index.Index(evt.Message)
	default:
		s.log.Debug(fmt.Sprintf("Not an indexable event : %v", evt))
		return nil
	}
}
