package pubsub

import (
	"context"
)

//go:generate mockgen -destination=mocks/mock_pubsub.go -package=mocks github.com/nfrund/chatwire/internal/pubsub Publisher,Subscriber

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the stream the message belongs to (e.g., "chat.message.added").
	Topic string
	// UserID identifies the connection or user that caused the message, if any.
	UserID string
	// Payload contains the raw message data, usually JSON.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., timestamps).
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages of the given topic to handler in the
	// background. Delivery stops when ctx is canceled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}

// Bus is both ends of a message bus.
type Bus interface {
	Publisher
	Subscriber
}
