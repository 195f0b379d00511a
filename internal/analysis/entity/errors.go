package entity

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already exists")
	ErrTooManySessions    = errors.New("too many open sessions")
	ErrUnsupportedMessage = errors.New("unsupported session message")
)
