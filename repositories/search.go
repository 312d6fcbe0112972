//go:generate go run go.uber.org/mock/mockgen -source=search.go -destination=../mocks/mock_search_index.go -package=mocks
package repositories

import (
	"context"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"chat-relay/domain/chat"
)

type ISearchIndex interface {
	Index(message chat.Message) error
	Search(ctx context.Context, terms string, limit int) ([]chat.Message, error)
}

// SearchIndex is a Bluge-backed full-text index over message text.
// Indexing happens off the publish path (see the indexer worker), so a slow
// segment flush never delays a broadcast.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) SearchIndex {
	return SearchIndex{writer: writer, log: log}
}

func (s SearchIndex) Index(message chat.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewKeywordField("sender", message.SenderID).StoreValue()).
		AddField(bluge.NewKeywordField("name", message.SenderName).StoreValue()).
		AddField(bluge.NewKeywordField("lang", message.Lang).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.CreatedAt).StoreValue().Sortable())
	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query over the text field, newest first.
func (s SearchIndex) Search(ctx context.Context, terms string, limit int) ([]chat.Message, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewMatchQuery(terms).SetField("text")
	request := bluge.NewTopNSearch(limit, query).SortBy([]string{"-at"})

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var messages []chat.Message
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var message chat.Message
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					message.ID = id
				}
			case "text":
				message.Text = string(value)
			case "sender":
				message.SenderID = string(value)
			case "name":
				message.SenderName = string(value)
			case "lang":
				message.Lang = string(value)
			case "at":
				if at, decodeErr := bluge.DecodeDateTime(value); decodeErr == nil {
					message.CreatedAt = at
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
