//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain/chat"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound side of a session. Consume must never block the
// caller: an implementation with a full buffer returns ErrSlowConsumer so
// the hub can shed that one consumer without stalling the others.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the authoritative mapping from connection ID to session.
type IRegistry interface {
	Register(connectionID, userID, displayName string, sink EventSink) (chat.Session, error)
	Remove(connectionID string)
	Snapshot() []Entry
	Count() int
}

// Entry pairs a session with its outbound sink inside a registry snapshot.
type Entry struct {
	Session chat.Session
	Sink    EventSink
}

// IHub is the single path through which every inbound message is persisted
// and fanned out.
type IHub interface {
	Publish(ctx context.Context, sender chat.Session, text string) (chat.Message, error)
	History(cmd chat.GetMessagesCommand) ([]chat.Message, *string, error)
	Search(ctx context.Context, cmd chat.SearchMessagesCommand) ([]chat.Message, error)
}
