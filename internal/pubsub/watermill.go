package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillBridge implements Bus using watermill's in-memory GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	logger *slog.Logger
}

const (
	// Metadata keys used to transfer our Message fields through watermill's message.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

var _ Bus = (*WatermillBridge)(nil)

// NewWatermillBridge initializes an in-memory bus. buffer is the per
// subscriber output channel size. Publish returns once every subscriber has
// acked, so messages published in sequence are handled in that sequence.
func NewWatermillBridge(buffer int) *WatermillBridge {
	wmLogger := watermill.NewStdLogger(false, false)
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            int64(buffer),
			BlockPublishUntilSubscriberAck: true,
		},
		wmLogger,
	)

	return &WatermillBridge{
		pub:    goChannel,
		sub:    goChannel,
		logger: slog.Default().With("component", "watermill_bridge"),
	}
}

// mapToWatermillMessage converts our Message to a watermill message.
func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	// Reserved keys win over caller metadata.
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)

	return wmMsg
}

// mapToPubSubMessage converts a watermill message back to our Message.
func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyUserID && k != metaKeyTopic {
			metadata[k] = v
		}
	}

	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements the Subscriber interface. Handler errors are logged and
// the message is acknowledged anyway: delivery is at most once.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msg := mapToPubSubMessage(wmMsg)
			if err := handler(ctx, msg); err != nil {
				wb.logger.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			// A Nack would make GoChannel redeliver forever.
			wmMsg.Ack()
		}
		wb.logger.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts down the bridge. Subscriptions end and later publishes fail.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}
