// Package chat holds the core chat entities: messages as they travel
// through the hub and sessions as the registry tracks them.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message is a chat message after persistence. The ID is assigned by the
// message repository and the struct is never mutated afterwards.
type Message struct {
	ID         uuid.UUID `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderDisplayName"`
	Text       string    `json:"text"`
	Lang       string    `json:"lang,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MessageDraft is the pre-persistence form of a message. Sender fields are
// always taken from the authenticated session, never from the wire payload.
type MessageDraft struct {
	SenderID   string
	SenderName string
	Text       string
	Lang       string
}
