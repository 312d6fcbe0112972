package event

import (
	"time"

	"chat-relay/domain/chat"
)

// DomainEvent is anything the hub emits after a successful publish.
type DomainEvent interface {
	OccurredAt() time.Time
}

// MessageBroadcast carries a persisted message to every session sink and to
// the async consumers (search index, monitoring timeline).
type MessageBroadcast struct {
	Message chat.Message
}

func (e MessageBroadcast) OccurredAt() time.Time {
	return e.Message.CreatedAt
}

// DeliveryDropped is emitted when a session had to be shed because its
// outbound buffer was full. Telemetry only, never delivered to clients.
type DeliveryDropped struct {
	ConnectionID string
	UserID       string
	At           time.Time
}

func (e DeliveryDropped) OccurredAt() time.Time { return e.At }

// ChannelCapacity is a periodic sample of an internal channel's fill level.
type ChannelCapacity struct {
	ChannelName string
	Capacity    int
	Length      int
	At          time.Time
}

func (e ChannelCapacity) OccurredAt() time.Time { return e.At }
