//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(limit int, before *string) ([]DiskMessage, *string, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// DiskMessage is the storage-level representation of a chat message.
type DiskMessage struct {
	ID     uuid.UUID `json:"id"`
	Sender string    `json:"sender"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	Lang   string    `json:"lang,omitempty"`
	At     time.Time `json:"at"`
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("msg:%019d:%s",
		message.At.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves the newest page of messages using a reverse prefix
// scan, then flips it so callers always receive ascending createdAt order.
// The returned cursor is the key suffix of the oldest entry in the page;
// passing it back as `before` continues the walk into older history.
func (m MessageRepository) GetMessages(limit int, before *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := "msg:"
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch before {
		case nil:
			// Seek past the highest possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*before)...)
		}

		it.Seek(seekKey)

		if before != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(byteMessages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", limit))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var diskMessages []DiskMessage
	for _, b := range byteMessages {
		var message DiskMessage
		if err = json.Unmarshal(b, &message); err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}

	// Reverse scan yields newest-first; history contract is ascending.
	diskMessages = lo.Reverse(diskMessages)

	if lastKey == "" {
		return diskMessages, nil, nil
	}
	return diskMessages, &lastKey, nil
}
