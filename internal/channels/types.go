package channels

import "time"

// Direction tells which side of the connection produces frames on a channel.
type Direction string

const (
	Inbound  Direction = "inbound"  // client to server
	Outbound Direction = "outbound" // server to client
)

// Channel is a named sub-route within one real-time connection.
type Channel interface {
	// Name returns the identifier carried in the frame target.
	Name() string

	// Direction returns whether clients or the server produce frames.
	Direction() Direction

	// Description returns human-readable documentation.
	Description() string

	// Example returns a sample payload.
	Example() string
}

// ChannelConfig holds configuration for creating a new channel.
type ChannelConfig struct {
	Name        string    `json:"name"`
	Direction   Direction `json:"direction"`
	Description string    `json:"description"`
	Example     string    `json:"example"`
}

// TypedChannel is the Channel implementation returned by Define.
type TypedChannel struct {
	name        string
	direction   Direction
	description string
	example     string
}

var _ Channel = (*TypedChannel)(nil)

// Define creates a channel from its configuration. It does not register it.
func Define(config ChannelConfig) Channel {
	return &TypedChannel{
		name:        config.Name,
		direction:   config.Direction,
		description: config.Description,
		example:     config.Example,
	}
}

func (c *TypedChannel) Name() string         { return c.name }
func (c *TypedChannel) Direction() Direction { return c.direction }
func (c *TypedChannel) Description() string  { return c.description }
func (c *TypedChannel) Example() string      { return c.example }
func (c *TypedChannel) String() string       { return c.name }

// Entry is a registered channel together with its registration metadata.
type Entry struct {
	Channel      Channel   `json:"-"`
	Name         string    `json:"name"`
	Direction    Direction `json:"direction"`
	Description  string    `json:"description"`
	Example      string    `json:"example,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ErrorType defines the type of a registry error.
type ErrorType string

const (
	ErrorChannelNotFound       ErrorType = "channel_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
	ErrorWrongDirection        ErrorType = "wrong_direction"
)

// ChannelError represents structured errors raised by the registry.
type ChannelError struct {
	Type    ErrorType `json:"type"`
	Channel string    `json:"channel"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// Error implements the error interface
func (e *ChannelError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *ChannelError) Unwrap() error {
	return e.Cause
}
