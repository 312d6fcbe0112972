package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain/event"
	"chat-relay/errors"
)

type Sink struct {
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Register_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	sink := Sink{}

	// Given no session exists
	req.Zero(registry.Count())
	req.Empty(registry.Snapshot())

	// When a connection registers
	session, err := registry.Register(connectionID, "user-1", "alice", sink)

	// Then
	req.NoError(err)
	req.Equal(connectionID, session.ConnectionID)
	req.Equal("user-1", session.UserID)
	req.Equal("alice", session.DisplayName)
	req.False(session.ConnectedAt.IsZero())

	req.Equal(1, registry.Count())
	entries := registry.Snapshot()
	req.Len(entries, 1)
	req.Equal(session, entries[0].Session)
	req.Equal(sink, entries[0].Sink)
}

func TestRegistry_Register_Duplicate_ConnectionID(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()

	// Given a registered connection
	_, err := registry.Register(connectionID, "user-1", "alice", Sink{})
	req.NoError(err)

	// When the same connection ID registers again
	_, err = registry.Register(connectionID, "user-2", "bob", Sink{})

	// Then the duplicate is rejected and the original survives
	req.ErrorIs(err, errors.ErrDuplicateConnection)
	req.Equal(1, registry.Count())
	req.Equal("user-1", registry.Snapshot()[0].Session.UserID)
}

func TestRegistry_Same_User_Multiple_Connections(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When one user opens two devices
	_, err := registry.Register(uuid.NewString(), "user-1", "alice", Sink{})
	req.NoError(err)
	_, err = registry.Register(uuid.NewString(), "user-1", "alice", Sink{})
	req.NoError(err)

	// Then both sessions coexist
	req.Equal(2, registry.Count())
}

func TestRegistry_Remove_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()

	_, err := registry.Register(connectionID, "user-1", "alice", Sink{})
	req.NoError(err)

	// When the session is removed twice (disconnect racing with shedding)
	registry.Remove(connectionID)
	registry.Remove(connectionID)

	// Then the second removal is a harmless no-op
	req.Zero(registry.Count())
}

func TestRegistry_Snapshot_Is_A_Copy(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()

	_, err := registry.Register(connectionID, "user-1", "alice", Sink{})
	req.NoError(err)

	// Given a snapshot taken before a removal
	entries := registry.Snapshot()
	registry.Remove(connectionID)

	// Then the snapshot still holds the removed entry
	req.Len(entries, 1)
	req.Zero(registry.Count())
}

func TestRegistry_Concurrent_Register_And_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connectionID := fmt.Sprintf("conn-%d", n)
			_, err := registry.Register(connectionID, fmt.Sprintf("user-%d", n), "name", Sink{})
			require.NoError(t, err)
			_ = registry.Snapshot()
			if n%2 == 0 {
				registry.Remove(connectionID)
			}
		}(i)
	}
	wg.Wait()

	// Half the connections removed themselves.
	req.Equal(workers/2, registry.Count())
}
