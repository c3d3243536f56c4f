package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is the only record exchanged between the hub and its clients.
// It is created by the hub when a client adds a message and is never updated.
type ChatMessage struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserLoggedOn announces that a user joined. The channel carrying it is
// registered but the hub does not emit it yet.
type UserLoggedOn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IDGenerator returns a new unique message identifier.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// NewMessageID returns a time-ordered UUIDv7, falling back to a random UUID
// if the v7 generator cannot read its entropy source.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// UTCNow returns the current time in UTC.
func UTCNow() time.Time {
	return time.Now().UTC()
}
