// Package runtime owns the session registry and the broadcast hub. It
// orchestrates message flow without containing account or storage logic.
package runtime

import (
	"sync"
	"time"

	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
)

// Registry is the authoritative mapping from connection ID to session.
// It is the only shared mutable structure between the gateway and the hub;
// every access goes through the mutex so snapshots never observe a
// partially-constructed entry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.Entry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.Entry),
	}
}

// Register inserts a new session for an open connection. A connection ID
// that is already present is a programmer error or an ID collision and is
// rejected with ErrDuplicateConnection.
func (r *Registry) Register(connectionID, userID, displayName string, sink contract.EventSink) (chat.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connectionID]; ok {
		return chat.Session{}, errors.ErrDuplicateConnection
	}

	session := chat.Session{
		ConnectionID: connectionID,
		UserID:       userID,
		DisplayName:  displayName,
		ConnectedAt:  time.Now().UTC(),
	}
	r.sessions[connectionID] = contract.Entry{Session: session, Sink: sink}
	return session, nil
}

// Remove deletes a session. Removing an absent connection ID is a no-op:
// disconnect notifications race with hub-initiated shedding, and both sides
// must be allowed to call Remove unconditionally.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connectionID)
}

// Snapshot returns a point-in-time copy of all entries. Callers iterate the
// copy, never the live map, so concurrent register/remove cannot invalidate
// the broadcast loop.
func (r *Registry) Snapshot() []contract.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]contract.Entry, 0, len(r.sessions))
	for _, entry := range r.sessions {
		entries = append(entries, entry)
	}
	return entries
}

// Count returns the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
