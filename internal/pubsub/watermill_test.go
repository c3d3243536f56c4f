package pubsub

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bridge := NewWatermillBridge(16)
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	err := bridge.Subscribe(ctx, "chat.message.added", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	err = bridge.Publish(ctx, Message{
		Topic:    "chat.message.added",
		UserID:   "peer-1",
		Payload:  []byte(`{"text":"hello"}`),
		Metadata: map[string]string{"request_id": "req-123"},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "chat.message.added", msg.Topic)
		assert.Equal(t, "peer-1", msg.UserID)
		assert.JSONEq(t, `{"text":"hello"}`, string(msg.Payload))
		assert.Equal(t, "req-123", msg.Metadata["request_id"])
		assert.NotContains(t, msg.Metadata, metaKeyTopic)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillBridge_HandlerErrorDoesNotRedeliver(t *testing.T) {
	bridge := NewWatermillBridge(16)
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 10)
	require.NoError(t, bridge.Subscribe(ctx, "t", func(ctx context.Context, msg Message) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "t", Payload: []byte("x")}))

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	select {
	case <-calls:
		t.Fatal("message was redelivered after handler error")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatermillBridge_ReservedMetadataWins(t *testing.T) {
	wm := mapToWatermillMessage(context.Background(), Message{
		Topic:    "real.topic",
		UserID:   "real-user",
		Metadata: map[string]string{metaKeyTopic: "spoofed", metaKeyUserID: "spoofed"},
	})

	msg := mapToPubSubMessage(wm)
	assert.Equal(t, "real.topic", msg.Topic)
	assert.Equal(t, "real-user", msg.UserID)
	assert.Empty(t, msg.Metadata)
}

func TestWatermillBridge_PublishAfterClose(t *testing.T) {
	bridge := NewWatermillBridge(1)
	require.NoError(t, bridge.Close())

	err := bridge.Publish(context.Background(), Message{Topic: "t"})
	assert.Error(t, err)
}

func TestWatermillBridge_PreservesPublishOrder(t *testing.T) {
	bridge := NewWatermillBridge(16)
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 50
	received := make(chan string, n)
	require.NoError(t, bridge.Subscribe(ctx, "ordered", func(ctx context.Context, msg Message) error {
		received <- string(msg.Payload)
		return nil
	}))

	for i := 0; i < n; i++ {
		require.NoError(t, bridge.Publish(ctx, Message{Topic: "ordered", Payload: []byte(strconv.Itoa(i))}))
	}

	for i := 0; i < n; i++ {
		select {
		case got := <-received:
			require.Equal(t, strconv.Itoa(i), got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}
