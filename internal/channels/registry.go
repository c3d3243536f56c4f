package channels

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/chatwire/internal/domain"
	"github.com/samber/lo"
)

// Registry manages the collection of registered channels.
type Registry struct {
	entries   map[string]*Entry
	validator *Validator
	mu        sync.RWMutex
}

// NewRegistry creates a new, empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:   make(map[string]*Entry),
		validator: NewValidator(),
	}
}

// Register validates a channel and adds it to the registry.
func (r *Registry) Register(ch Channel) error {
	if err := r.validator.ValidateDefinition(ch); err != nil {
		name := ""
		if ch != nil {
			name = ch.Name()
		}
		return &ChannelError{
			Type:    ErrorValidationFailed,
			Channel: name,
			Message: "channel validation failed",
			Cause:   err,
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := ch.Name()
	if _, exists := r.entries[name]; exists {
		return &ChannelError{
			Type:    ErrorDuplicateRegistration,
			Channel: name,
			Message: fmt.Sprintf("channel already registered: %s", name),
		}
	}

	r.entries[name] = &Entry{
		Channel:      ch,
		Name:         name,
		Direction:    ch.Direction(),
		Description:  ch.Description(),
		Example:      ch.Example(),
		RegisteredAt: time.Now(),
	}
	return nil
}

// MustRegister registers channels and panics on the first error. It is meant
// for startup wiring where a bad definition is a programming error.
func (r *Registry) MustRegister(chs ...Channel) {
	for _, ch := range chs {
		if err := r.Register(ch); err != nil {
			panic("failed to register channel: " + err.Error())
		}
	}
}

// Get retrieves a channel by name.
func (r *Registry) Get(name string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Channel, true
}

// Resolve returns the named channel if it is registered for the given
// direction. The returned error wraps domain.ErrUnknownChannel or
// domain.ErrDirection.
func (r *Registry) Resolve(name string, dir Direction) (Channel, error) {
	ch, ok := r.Get(name)
	if !ok {
		return nil, &ChannelError{
			Type:    ErrorChannelNotFound,
			Channel: name,
			Message: fmt.Sprintf("channel not found: %s", name),
			Cause:   domain.ErrUnknownChannel,
		}
	}
	if ch.Direction() != dir {
		return nil, &ChannelError{
			Type:    ErrorWrongDirection,
			Channel: name,
			Message: fmt.Sprintf("channel %s is %s", name, ch.Direction()),
			Cause:   domain.ErrDirection,
		}
	}
	return ch, nil
}

// List returns all registered channels sorted by name.
func (r *Registry) List() []Channel {
	return lo.Map(r.Entries(), func(e Entry, _ int) Channel { return e.Channel })
}

// ListByDirection returns the registered channels flowing in one direction.
func (r *Registry) ListByDirection(dir Direction) []Channel {
	return lo.Filter(r.List(), func(ch Channel, _ int) bool { return ch.Direction() == dir })
}

// Entries returns copies of all registry entries sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	entries := lo.MapToSlice(r.entries, func(_ string, e *Entry) Entry { return *e })
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
