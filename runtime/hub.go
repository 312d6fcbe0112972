package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/repositories"
)

// Hub is the single authoritative path from an inbound message to the
// durable log and to every registered session. Publish serializes the
// persist-then-broadcast sequence under a mutex: no session can ever see a
// message that is absent from the log, and broadcast order equals persist
// order. Delivery to an individual session is non-blocking; a full outbound
// buffer sheds that one session and never stalls the loop.
type Hub struct {
	mu           sync.Mutex
	log          *slog.Logger
	registry     contract.IRegistry
	messages     repositories.IMessageRepository
	index        repositories.ISearchIndex
	moderator    *moderation.Moderator
	events       chan event.DomainEvent
	historyLimit int
}

func NewHub(log *slog.Logger, registry contract.IRegistry,
	messages repositories.IMessageRepository, index repositories.ISearchIndex,
	moderator *moderation.Moderator, eventBufferSize, historyLimit int) *Hub {
	return &Hub{
		log:          log,
		registry:     registry,
		messages:     messages,
		index:        index,
		moderator:    moderator,
		events:       make(chan event.DomainEvent, eventBufferSize),
		historyLimit: historyLimit,
	}
}

// Events exposes the async side-effect channel consumed by the fanout
// worker (search indexing, monitoring). Read-only for callers.
func (h *Hub) Events() <-chan event.DomainEvent {
	return h.events
}

// Publish validates, censors, persists and broadcasts one message.
// Sender identity comes exclusively from the session; payload-supplied
// sender fields are never trusted.
func (h *Hub) Publish(ctx context.Context, sender chat.Session, text string) (chat.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return chat.Message{}, errors.ErrEmptyMessage
	}

	censored, foundWords := h.moderator.Censor(trimmed)
	if len(foundWords) > 0 {
		h.log.Info("message censored",
			"sender", sender.UserID,
			"hits", len(foundWords))
	}

	info := whatlanggo.Detect(censored)

	message := chat.Message{
		ID:         uuid.New(),
		SenderID:   sender.UserID,
		SenderName: sender.DisplayName,
		Text:       censored,
		Lang:       info.Lang.Iso6391(),
		CreatedAt:  time.Now().UTC(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.messages.StoreMessage(toDiskMessage(message)); err != nil {
		return chat.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	h.fanout(ctx, message)

	return message, nil
}

// fanout delivers a persisted message to every session in the current
// snapshot. A failure on one sink removes that session and moves on; it is
// never surfaced to the publisher.
func (h *Hub) fanout(ctx context.Context, message chat.Message) {
	broadcast := event.MessageBroadcast{Message: message}

	for _, entry := range h.registry.Snapshot() {
		if err := entry.Sink.Consume(ctx, broadcast); err != nil {
			h.log.Warn("dropping session, delivery failed",
				"connection_id", entry.Session.ConnectionID,
				"user_id", entry.Session.UserID,
				"err", err)
			h.registry.Remove(entry.Session.ConnectionID)
			h.offer(event.DeliveryDropped{
				ConnectionID: entry.Session.ConnectionID,
				UserID:       entry.Session.UserID,
				At:           time.Now().UTC(),
			})
		}
	}

	h.offer(broadcast)
}

// offer pushes an event to the async consumers without ever blocking the
// publish path.
func (h *Hub) offer(e event.DomainEvent) {
	select {
	case h.events <- e:
	default:
		h.log.Debug("async event lost, buffer full")
	}
}

// History returns a page of persisted messages, oldest first, with an
// opaque cursor for the next (older) page.
func (h *Hub) History(cmd chat.GetMessagesCommand) ([]chat.Message, *string, error) {
	limit := cmd.Limit
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}
	diskMessages, cursor, err := h.messages.GetMessages(limit, cmd.Before)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return fromDiskMessages(diskMessages), cursor, nil
}

// Search runs a full-text query over the async-maintained index.
func (h *Hub) Search(ctx context.Context, cmd chat.SearchMessagesCommand) ([]chat.Message, error) {
	limit := cmd.Limit
	if limit <= 0 || limit > h.historyLimit {
		limit = h.historyLimit
	}
	return h.index.Search(ctx, cmd.Terms, limit)
}

func toDiskMessage(message chat.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:     message.ID,
		Sender: message.SenderID,
		Name:   message.SenderName,
		Text:   message.Text,
		Lang:   message.Lang,
		At:     message.CreatedAt,
	}
}

func fromDiskMessages(messages []repositories.DiskMessage) []chat.Message {
	return lo.Map(messages, func(item repositories.DiskMessage, _ int) chat.Message {
		return chat.Message{
			ID:         item.ID,
			SenderID:   item.Sender,
			SenderName: item.Name,
			Text:       item.Text,
			Lang:       item.Lang,
			CreatedAt:  item.At,
		}
	})
}
