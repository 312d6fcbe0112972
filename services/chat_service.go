//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"

	"chat-relay/contract"
	"chat-relay/domain/chat"
)

type IChatService interface {
	PostMessage(ctx context.Context, sender chat.Session, text string) (chat.Message, error)
	GetMessages(cmd chat.GetMessagesCommand) ([]chat.Message, *string, error)
	SearchMessages(ctx context.Context, cmd chat.SearchMessagesCommand) ([]chat.Message, error)
}

// ChatService is a thin application facade over the hub; the API and
// gateway layers depend on this interface, never on the hub directly.
type ChatService struct {
	hub contract.IHub
}

func NewChatService(hub contract.IHub) *ChatService {
	return &ChatService{hub: hub}
}

func (s *ChatService) PostMessage(ctx context.Context, sender chat.Session, text string) (chat.Message, error) {
	return s.hub.Publish(ctx, sender, text)
}

func (s *ChatService) GetMessages(cmd chat.GetMessagesCommand) ([]chat.Message, *string, error) {
	return s.hub.History(cmd)
}

func (s *ChatService) SearchMessages(ctx context.Context, cmd chat.SearchMessagesCommand) ([]chat.Message, error) {
	return s.hub.Search(ctx, cmd)
}
