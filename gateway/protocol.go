package gateway

import (
	"encoding/json"

	"chat-relay/domain/chat"
)

// Wire event names, shared with the browser and CLI clients.
const (
	EventSendMessage = "sendMessage"
	EventNewMessage  = "newMessage"
	EventError       = "error"
)

// Error codes surfaced to the sending client only.
const (
	CodeEmptyMessage     = "EmptyMessage"
	CodeStoreUnavailable = "StoreUnavailable"
	CodeUnauthorized     = "Unauthorized"
)

// Envelope is the JSON frame exchanged on the websocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type SendMessageData struct {
	Text string `json:"text"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

func newMessageFrame(message chat.Message) ([]byte, error) {
	return marshalEnvelope(EventNewMessage, message)
}

func errorFrame(code, message string) ([]byte, error) {
	return marshalEnvelope(EventError, ErrorData{Code: code, Message: message})
}
