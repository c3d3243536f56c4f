package chat

import (
	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/pubsub"
)

// Channels carried over the chat connection.
var (
	// AddMessage is invoked by a client with the message text.
	AddMessage = channels.Define(channels.ChannelConfig{
		Name:        "AddMessage",
		Direction:   channels.Inbound,
		Description: "Adds a chat message. The payload is the message text.",
		Example:     `{"type":"invoke","target":"AddMessage","payload":"Hello!"}`,
	})

	// MessageAdded is broadcast to every peer after a message is added.
	MessageAdded = channels.Define(channels.ChannelConfig{
		Name:        "MessageAdded",
		Direction:   channels.Outbound,
		Description: "Broadcasts a newly added chat message to all connected peers",
		Example:     `{"type":"event","target":"MessageAdded","payload":{"id":"0190b6a2-...","author":"Anonymous","text":"Hello!","createdAt":"2024-01-01T00:00:00Z"}}`,
	})

	// UserLoggedOn is registered so clients can subscribe to it, but the hub
	// does not emit it.
	UserLoggedOn = channels.Define(channels.ChannelConfig{
		Name:        "UserLoggedOn",
		Direction:   channels.Outbound,
		Description: "Announces that a user logged on",
		Example:     `{"type":"event","target":"UserLoggedOn","payload":{"id":"user123","name":"Ada"}}`,
	})
)

// EventMessageAdded is the bus topic a new message is published on before it
// is fanned out to peers.
var EventMessageAdded = pubsub.NewEvent[domain.ChatMessage]("chat.message.added")

// RegisterChannels registers the chat channels with reg.
func RegisterChannels(reg *channels.Registry) error {
	for _, ch := range []channels.Channel{AddMessage, MessageAdded, UserLoggedOn} {
		if err := reg.Register(ch); err != nil {
			return err
		}
	}
	return nil
}
