package hub

import (
	"context"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/pubsub/mocks"
)

func startLoop(t *testing.T) *Hub {
	t.Helper()

	ctrl := gomock.NewController(t)
	sub := mocks.NewMockSubscriber(ctrl)
	sub.EXPECT().Subscribe(gomock.Any(), "chat.message.added", gomock.Any()).Return(nil)

	h := New(nil, channels.NewRegistry(), sub, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, h.Start(ctx))
	return h
}

func TestRun_SlowPeerIsDroppedAlone(t *testing.T) {
	h := startLoop(t)

	slow := &Peer{ID: "slow", send: make(chan []byte, 1)}
	fast := &Peer{ID: "fast", send: make(chan []byte, 4)}
	h.register <- slow
	h.register <- fast

	h.Broadcast([]byte("a"))
	h.Broadcast([]byte("b"))

	require.Eventually(t, func() bool { return h.PeerCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, []byte("a"), <-fast.send)
	assert.Equal(t, []byte("b"), <-fast.send)

	assert.Equal(t, []byte("a"), <-slow.send)
	_, open := <-slow.send
	assert.False(t, open, "slow peer queue is closed")
	assert.Equal(t, websocket.StatusPolicyViolation, slow.closeCode)
}

func TestRun_UnregisterUnknownPeer(t *testing.T) {
	h := startLoop(t)

	p := &Peer{ID: "p", send: make(chan []byte, 1)}
	h.register <- p
	h.unregister <- p
	h.unregister <- p

	assert.Eventually(t, func() bool { return h.PeerCount() == 0 }, time.Second, 5*time.Millisecond)
}
