package client_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/client"
	"github.com/nfrund/chatwire/internal/config"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/handlers"
	"github.com/nfrund/chatwire/internal/pubsub"
	"github.com/nfrund/chatwire/internal/server"
	"github.com/nfrund/chatwire/internal/store"
)

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// startHub runs a full hub server and returns its chat URL.
func startHub(t *testing.T) string {
	t.Helper()

	s, err := server.New(&config.Config{
		ServerAddr:      "127.0.0.1:0",
		ChatRoute:       "/chat",
		ChatAuthor:      "Anonymous",
		HistorySize:     50,
		PeerBuffer:      32,
		MaxMessageBytes: 65536,
		PollTimeout:     200 * time.Millisecond,
		WriteTimeout:    time.Second,
		RateLimit:       100,
		BusDriver:       config.BusGoChannel,
		LogFormat:       "text",
		LogLevel:        "error",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Hub.Start(ctx))
	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		cancel()
		ts.Close()
		s.Bus.Close()
	})
	return ts.URL + "/chat"
}

// startPollingOnlyHub serves only the HTTP fallback, so WebSocket dials fail.
func startPollingOnlyHub(t *testing.T) string {
	t.Helper()

	bus := pubsub.NewWatermillBridge(16)
	svc := chat.NewService(bus, store.NewMemoryStore(50), "Anonymous")
	reg := channels.NewRegistry()
	require.NoError(t, chat.RegisterChannels(reg))

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	chatHandler := handlers.NewChatHandler(svc, 200*time.Millisecond)
	e.POST("/chat/messages", chatHandler.PostMessage)
	e.GET("/chat/messages", chatHandler.PollMessages)
	e.GET("/chat/messages/history", chatHandler.History)
	e.GET("/chat/channels", handlers.NewChannelsHandler(reg).List)

	ts := httptest.NewServer(e)
	t.Cleanup(func() {
		ts.Close()
		bus.Close()
	})
	return ts.URL + "/chat"
}

func waitForMessage(t *testing.T, ch <-chan domain.ChatMessage) domain.ChatMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for MessageAdded")
		return domain.ChatMessage{}
	}
}

func TestClient_SendReachesEveryPeer(t *testing.T) {
	url := startHub(t)

	alice := client.New(url)
	bob := client.New(url)
	t.Cleanup(func() { alice.Close(); bob.Close() })

	aliceGot := make(chan domain.ChatMessage, 4)
	bobGot := make(chan domain.ChatMessage, 4)
	alice.OnMessageAdded(func(m domain.ChatMessage) { aliceGot <- m })
	bob.OnMessageAdded(func(m domain.ChatMessage) { bobGot <- m })

	require.NoError(t, alice.Connect(context.Background()))
	require.NoError(t, bob.Connect(context.Background()))
	assert.True(t, alice.Connected())

	// Give the hub a moment to register both peers.
	time.Sleep(100 * time.Millisecond)
	alice.Send("hello")

	for _, ch := range []chan domain.ChatMessage{aliceGot, bobGot} {
		msg := waitForMessage(t, ch)
		assert.Equal(t, "hello", msg.Text)
		assert.Equal(t, "Anonymous", msg.Author)
		assert.NotEmpty(t, msg.ID)
	}

	select {
	case extra := <-bobGot:
		t.Fatalf("unexpected second broadcast: %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClient_HandlersFireInRegistrationOrder(t *testing.T) {
	url := startHub(t)
	c := client.New(url)
	t.Cleanup(func() { c.Close() })

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})

	c.On("MessageAdded", func(payload json.RawMessage) {
		mu.Lock()
		order = append(order, "first")
		mu.Unlock()
	})
	c.On("MessageAdded", func(payload json.RawMessage) {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()
		close(done)
	})

	require.NoError(t, c.Connect(context.Background()))
	time.Sleep(100 * time.Millisecond)
	c.Send("ordered")

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("handlers did not run")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestClient_ConnectFailureIsLoggedNotFatal(t *testing.T) {
	logger, logs := testLogger()
	c := client.New("ws://127.0.0.1:1/chat", client.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	require.Error(t, err)
	assert.False(t, c.Connected())
	assert.Contains(t, logs.String(), "Failed to open chat connection")

	// Sending while disconnected is dropped and logged, never blocks.
	c.Send("nobody listens")
	assert.Contains(t, logs.String(), "Dropping message, not connected")

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestClient_PollingFallback(t *testing.T) {
	url := startPollingOnlyHub(t)
	logger, logs := testLogger()

	c := client.New(url, client.WithLogger(logger), client.WithPollingFallback())
	t.Cleanup(func() { c.Close() })

	got := make(chan domain.ChatMessage, 4)
	c.OnMessageAdded(func(m domain.ChatMessage) { got <- m })

	require.NoError(t, c.Connect(context.Background()))
	assert.Contains(t, logs.String(), "falling back to polling")

	c.Send("over http")

	msg := waitForMessage(t, got)
	assert.Equal(t, "over http", msg.Text)
	assert.Equal(t, "Anonymous", msg.Author)
}

func TestClient_PollingPeerSkipsEarlierMessages(t *testing.T) {
	url := startPollingOnlyHub(t)
	logger, _ := testLogger()

	first := client.New(url, client.WithLogger(logger), client.WithPollingFallback())
	t.Cleanup(func() { first.Close() })
	firstGot := make(chan domain.ChatMessage, 4)
	first.OnMessageAdded(func(m domain.ChatMessage) { firstGot <- m })
	require.NoError(t, first.Connect(context.Background()))

	first.Send("before the late peer")
	assert.Equal(t, "before the late peer", waitForMessage(t, firstGot).Text)

	late := client.New(url, client.WithLogger(logger), client.WithPollingFallback())
	t.Cleanup(func() { late.Close() })
	lateGot := make(chan domain.ChatMessage, 4)
	late.OnMessageAdded(func(m domain.ChatMessage) { lateGot <- m })
	require.NoError(t, late.Connect(context.Background()))

	first.Send("after the late peer")

	msg := waitForMessage(t, lateGot)
	assert.Equal(t, "after the late peer", msg.Text)

	select {
	case extra := <-lateGot:
		t.Fatalf("unexpected message %q", extra.Text)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestClient_WithoutFallbackWebSocketFailureIsReturned(t *testing.T) {
	url := startPollingOnlyHub(t)
	logger, _ := testLogger()

	c := client.New(url, client.WithLogger(logger))
	err := c.Connect(context.Background())
	assert.Error(t, err)
	assert.False(t, c.Connected())
}

func TestClient_CloseStopsDelivery(t *testing.T) {
	url := startHub(t)
	logger, logs := testLogger()

	c := client.New(url, client.WithLogger(logger))
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())

	assert.False(t, c.Connected())
	assert.ErrorIs(t, c.Connect(context.Background()), domain.ErrClosed)

	c.Send("after close")
	assert.True(t, strings.Contains(logs.String(), "not connected"))
	assert.NotContains(t, logs.String(), "Chat connection lost")
}

func TestClient_ConnectRacingCloseLeavesNoConnection(t *testing.T) {
	url := startHub(t)
	logger, _ := testLogger()

	for i := 0; i < 20; i++ {
		c := client.New(url, client.WithLogger(logger))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := c.Connect(context.Background())
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrClosed)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Close())
		}()
		wg.Wait()

		assert.False(t, c.Connected(), "iteration %d", i)
		assert.ErrorIs(t, c.Connect(context.Background()), domain.ErrClosed)
	}
}

func TestClient_Channels(t *testing.T) {
	url := startHub(t)
	c := client.New(url)

	list, err := c.Channels(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "AddMessage", list[0].Name)
	assert.Equal(t, "inbound", list[0].Direction)
	assert.False(t, c.Connected(), "listing channels does not connect")
}
