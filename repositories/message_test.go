package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Record_Multiple_Messages(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default())
	content := "this message will self destruct in 5 seconds"
	at := time.Now().UTC()
	diskMessages := []DiskMessage{
		{uuid.New(), "id-a", "Alice", content, "eng", at},
		{uuid.New(), "id-b", "Bob", content, "eng", at.Add(1 * time.Minute)},
		{uuid.New(), "id-c", "Clara", content, "eng", at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	fetched, _, err := repository.GetMessages(0, nil)
	req.NoError(err)
	req.Len(fetched, len(diskMessages))
	// Ascending createdAt order regardless of the reverse scan underneath.
	req.Equal(diskMessages, fetched)
}

func Test_Record_Multiple_Messages_And_Limit(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default())
	content := "this message will self destruct in 5 seconds"
	at := time.Now().UTC()
	diskMessages := []DiskMessage{
		{uuid.New(), "id-a", "Alice", content, "eng", at},
		{uuid.New(), "id-b", "Bob", content, "eng", at.Add(1 * time.Minute)},
		{uuid.New(), "id-c", "Clara", content, "eng", at.Add(2 * time.Minute)},
	}
	for _, dm := range diskMessages {
		req.NoError(repository.StoreMessage(dm))
	}

	limit := 2
	fetched, cursor, err := repository.GetMessages(limit, nil)
	req.NoError(err)
	req.Len(fetched, limit)
	// The newest page: Bob then Clara, ascending.
	req.Equal("Bob", fetched[0].Name)
	req.Equal("Clara", fetched[1].Name)
	req.NotNil(cursor)
}

func Test_Cursor_Walks_Into_Older_History(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default())
	at := time.Now().UTC()
	names := []string{"Alice", "Bob", "Clara", "David", "Eve"}
	for i, name := range names {
		req.NoError(repository.StoreMessage(DiskMessage{
			ID:   uuid.New(),
			Name: name,
			Text: "msg " + name,
			At:   at.Add(time.Duration(i) * time.Minute),
		}))
	}

	// Page 1: the two newest.
	page1, cursor, err := repository.GetMessages(2, nil)
	req.NoError(err)
	req.Len(page1, 2)
	req.Equal("David", page1[0].Name)
	req.Equal("Eve", page1[1].Name)
	req.NotNil(cursor)

	// Page 2: continues strictly older than page 1.
	page2, cursor2, err := repository.GetMessages(2, cursor)
	req.NoError(err)
	req.Len(page2, 2)
	req.Equal("Bob", page2[0].Name)
	req.Equal("Clara", page2[1].Name)
	req.NotNil(cursor2)

	// Page 3: the single oldest entry.
	page3, _, err := repository.GetMessages(2, cursor2)
	req.NoError(err)
	req.Len(page3, 1)
	req.Equal("Alice", page3[0].Name)
}

func Test_Same_Nanosecond_Messages_Are_Both_Kept(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default())
	at := time.Now().UTC()
	// Identical timestamps; the UUID suffix keeps the keys distinct.
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Name: "Alice", Text: "first", At: at}))
	req.NoError(repository.StoreMessage(DiskMessage{ID: uuid.New(), Name: "Bob", Text: "second", At: at}))

	fetched, _, err := repository.GetMessages(0, nil)
	req.NoError(err)
	req.Len(fetched, 2)
}

func Test_Empty_Store_Returns_No_Cursor(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewMessageRepository(db, slog.Default())
	fetched, cursor, err := repository.GetMessages(10, nil)
	req.NoError(err)
	req.Empty(fetched)
	req.Nil(cursor)
}
