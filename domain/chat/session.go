package chat

import "time"

// Session is one active authenticated real-time connection. A single user
// may hold several concurrent sessions (multi-device); the ConnectionID is
// what makes each one unique.
type Session struct {
	ConnectionID string
	UserID       string
	DisplayName  string
	ConnectedAt  time.Time
}
