// Package store keeps recent chat history in process memory. Nothing is
// persisted: a restart starts from an empty history.
package store

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/nfrund/chatwire/internal/domain"
)

// Store defines the history operations used by the chat service.
type Store interface {
	Append(msg domain.ChatMessage)
	Recent(limit int) []domain.ChatMessage
	After(id string) []domain.ChatMessage
	Wait(ctx context.Context, afterID string) ([]domain.ChatMessage, error)
	Len() int
}

// MemoryStore is a bounded ring of the most recent messages.
type MemoryStore struct {
	mu       sync.Mutex
	buf      []domain.ChatMessage
	start    int
	count    int
	notifyCh chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding at most capacity messages.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemoryStore{
		buf:      make([]domain.ChatMessage, capacity),
		notifyCh: make(chan struct{}),
	}
}

// Append adds msg, evicting the oldest message when the ring is full, and
// wakes every waiter.
func (s *MemoryStore) Append(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := (s.start + s.count) % len(s.buf)
	s.buf[idx] = msg
	if s.count < len(s.buf) {
		s.count++
	} else {
		s.start = (s.start + 1) % len(s.buf)
	}

	close(s.notifyCh)
	s.notifyCh = make(chan struct{})
}

// snapshot returns the buffered messages oldest first. Caller holds mu.
func (s *MemoryStore) snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.start+i)%len(s.buf)]
	}
	return out
}

// Recent returns up to limit messages, oldest first. limit <= 0 means all.
func (s *MemoryStore) Recent(limit int) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.snapshot()
	if limit > 0 && limit < len(all) {
		return all[len(all)-limit:]
	}
	return all
}

// After returns the messages stored after the one with the given id. An empty
// or unknown id (including one already evicted) yields the whole buffer.
func (s *MemoryStore) After(id string) []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.after(id)
}

func (s *MemoryStore) after(id string) []domain.ChatMessage {
	all := s.snapshot()
	if id == "" {
		return all
	}
	_, idx, found := lo.FindIndexOf(all, func(m domain.ChatMessage) bool {
		return m.ID == id
	})
	if !found {
		return all
	}
	return all[idx+1:]
}

// Wait blocks until at least one message newer than afterID exists, then
// returns them. It returns ctx.Err() if ctx ends first.
func (s *MemoryStore) Wait(ctx context.Context, afterID string) ([]domain.ChatMessage, error) {
	for {
		s.mu.Lock()
		msgs := s.after(afterID)
		ch := s.notifyCh
		s.mu.Unlock()

		if len(msgs) > 0 {
			return msgs, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of buffered messages.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
