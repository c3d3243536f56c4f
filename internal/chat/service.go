// Package chat implements the message hub operation: turning an AddMessage
// invocation into a ChatMessage that is stored and broadcast.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/pubsub"
	"github.com/nfrund/chatwire/internal/store"
)

// Service defines the chat operations.
type Service interface {
	// AddMessage builds a message from text, stores it and publishes it for
	// broadcast. Any text is accepted.
	AddMessage(ctx context.Context, text string) (domain.ChatMessage, error)

	// History returns up to limit recent messages, oldest first.
	History(limit int) []domain.ChatMessage

	// Since blocks until messages newer than afterID exist or ctx ends.
	Since(ctx context.Context, afterID string) ([]domain.ChatMessage, error)
}

// Option customises a service.
type Option func(*service)

// WithIDGenerator replaces the message id generator.
func WithIDGenerator(gen domain.IDGenerator) Option {
	return func(s *service) { s.newID = gen }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(clock domain.Clock) Option {
	return func(s *service) { s.now = clock }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

type service struct {
	publisher pubsub.Publisher
	store     store.Store
	author    string
	newID     domain.IDGenerator
	now       domain.Clock
	logger    *slog.Logger
}

// NewService creates a chat service. Every message is attributed to author.
func NewService(publisher pubsub.Publisher, st store.Store, author string, opts ...Option) Service {
	s := &service{
		publisher: publisher,
		store:     st,
		author:    author,
		newID:     domain.NewMessageID,
		now:       domain.UTCNow,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat_service")
	return s
}

func (s *service) AddMessage(ctx context.Context, text string) (domain.ChatMessage, error) {
	msg := domain.ChatMessage{
		ID:        s.newID(),
		Author:    s.author,
		Text:      text,
		CreatedAt: s.now(),
	}

	s.store.Append(msg)

	if err := pubsub.Publish(ctx, s.publisher, EventMessageAdded, msg.Author, msg); err != nil {
		s.logger.Error("Failed to publish chat message", "message_id", msg.ID, "error", err)
		return msg, fmt.Errorf("publish %s: %w", EventMessageAdded.Name(), err)
	}

	s.logger.Debug("Chat message added", "message_id", msg.ID, "length", len(text))
	return msg, nil
}

func (s *service) History(limit int) []domain.ChatMessage {
	return s.store.Recent(limit)
}

func (s *service) Since(ctx context.Context, afterID string) ([]domain.ChatMessage, error) {
	return s.store.Wait(ctx, afterID)
}
