package api

import "chat-relay/domain/chat"

// SignupRequest is the payload for POST /api/auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// AuthResponse is returned by both auth endpoints.
type AuthResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    UserResponse `json:"user"`
}

// MessagesResponse is the payload for GET /api/chat/messages and
// GET /api/chat/messages/search. Next is the cursor for the next older
// page; absent when there is nothing further.
type MessagesResponse struct {
	Success  bool           `json:"success"`
	Messages []chat.Message `json:"messages"`
	Next     *string        `json:"next,omitempty"`
}

// ErrorResponse is the generic failure payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
