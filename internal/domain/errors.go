package domain

import "errors"

// Sentinel errors for the chat domain. These provide consistent, checkable
// errors for the failures callers are expected to branch on.
var (
	ErrUnknownChannel = errors.New("channel is not registered")
	ErrDirection      = errors.New("channel cannot be used in this direction")
	ErrInvalidFrame   = errors.New("invalid frame")
	ErrNotConnected   = errors.New("client is not connected")
	ErrClosed         = errors.New("client is closed")
)
