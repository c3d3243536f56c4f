package pubsub

import (
	"context"

	json "github.com/goccy/go-json"
)

// Event[T] ties a topic name to the payload type carried on it.
type Event[T any] struct {
	topicName string
}

// NewEvent creates a typed event for the given topic.
func NewEvent[T any](name string) Event[T] {
	return Event[T]{topicName: name}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Publish sends a typed event. The compiler ensures payload matches T.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		UserID:  userID,
		Payload: data,
	})
}

// Decode unmarshals the payload of msg as T.
func Decode[T any](msg Message) (T, error) {
	var v T
	err := json.Unmarshal(msg.Payload, &v)
	return v, err
}
