package errors

import "fmt"

var (
	// Connection / broadcast path
	ErrUnauthorized        = fmt.Errorf("unauthorized")
	ErrEmptyMessage        = fmt.Errorf("empty message")
	ErrStoreUnavailable    = fmt.Errorf("store unavailable")
	ErrDuplicateConnection = fmt.Errorf("duplicate connection id")
	ErrSlowConsumer        = fmt.Errorf("outbound buffer full")

	// Accounts
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Runtime
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
