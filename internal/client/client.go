// Package client is the Go connection client for the chat hub. A Client is
// built explicitly and handed to whatever needs it; there is no package-level
// instance.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/protocol"
)

// Handler receives the raw payload of an event frame.
type Handler func(payload json.RawMessage)

// transport is one way of talking to the hub.
type transport interface {
	// send delivers one AddMessage invocation.
	send(ctx context.Context, text string) error
	// receive delivers event frames to dispatch until the transport fails or
	// ctx ends.
	receive(ctx context.Context, dispatch func(protocol.Frame)) error
	close() error
	name() string
}

// Client holds one connection to the hub.
type Client struct {
	wsURL   string
	httpURL string

	logger          *slog.Logger
	dialer          *websocket.Dialer
	httpClient      *http.Client
	pollingFallback bool

	mu       sync.RWMutex
	handlers map[string][]Handler

	outbox    chan string
	connected atomic.Bool
	closed    atomic.Bool

	connMu sync.Mutex
	conn   transport
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a client for the hub at url. Both ws(s):// and http(s):// forms
// are accepted. No connection is opened until Connect.
func New(url string, opts ...Option) *Client {
	c := &Client{
		wsURL:      toScheme(url, "ws"),
		httpURL:    toScheme(url, "http"),
		logger:     slog.Default(),
		dialer:     websocket.DefaultDialer,
		httpClient: http.DefaultClient,
		handlers:   make(map[string][]Handler),
		outbox:     make(chan string, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "chat_client")
	return c
}

// toScheme rewrites the scheme of url to the ws or http family, keeping TLS.
func toScheme(url, family string) string {
	secure := strings.HasPrefix(url, "wss://") || strings.HasPrefix(url, "https://")
	rest := url
	if i := strings.Index(url, "://"); i >= 0 {
		rest = url[i+3:]
	}
	scheme := family
	if secure {
		scheme += "s"
	}
	return scheme + "://" + strings.TrimSuffix(rest, "/")
}

// Connect opens the connection. A failure is logged and returned; it never
// panics. There is no retry. Calling Connect on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return domain.ErrClosed
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()
	// Close may have finished while we waited for the lock.
	if c.closed.Load() {
		return domain.ErrClosed
	}
	if c.connected.Load() {
		return nil
	}
	c.release()

	t, err := c.open(ctx)
	if err != nil {
		c.logger.Error("Failed to open chat connection", "url", c.wsURL, "error", err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.conn = t
	c.cancel = cancel
	c.connected.Store(true)
	c.logger.Info("Chat connection opened", "transport", t.name())

	c.wg.Add(2)
	go c.readLoop(runCtx, cancel, t)
	go c.writeLoop(runCtx, t)
	return nil
}

// open dials the WebSocket and, when enabled, falls back to long polling.
func (c *Client) open(ctx context.Context) (transport, error) {
	t, wsErr := dialWebSocket(ctx, c.dialer, c.wsURL)
	if wsErr == nil {
		return t, nil
	}
	if !c.pollingFallback {
		return nil, fmt.Errorf("dial %s: %w", c.wsURL, wsErr)
	}

	c.logger.Warn("WebSocket unavailable, falling back to polling", "error", wsErr)
	p, err := openPolling(ctx, c.httpClient, c.httpURL)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("dial %s: %w", c.wsURL, wsErr), err)
	}
	return p, nil
}

// Connected reports whether the connection is open.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// On registers handler for events on channel. Several handlers may be
// registered for one channel; they run in registration order on the client's
// reader goroutine.
func (c *Client) On(channel string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[channel] = append(c.handlers[channel], handler)
}

// OnMessageAdded registers a typed MessageAdded handler.
func (c *Client) OnMessageAdded(handler func(domain.ChatMessage)) {
	c.On(chat.MessageAdded.Name(), func(payload json.RawMessage) {
		var msg domain.ChatMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Warn("Ignoring malformed MessageAdded payload", "error", err)
			return
		}
		handler(msg)
	})
}

// OnUserLoggedOn registers a typed UserLoggedOn handler.
func (c *Client) OnUserLoggedOn(handler func(domain.UserLoggedOn)) {
	c.On(chat.UserLoggedOn.Name(), func(payload json.RawMessage) {
		var ev domain.UserLoggedOn
		if err := json.Unmarshal(payload, &ev); err != nil {
			c.logger.Warn("Ignoring malformed UserLoggedOn payload", "error", err)
			return
		}
		handler(ev)
	})
}

// Send queues an AddMessage invocation. It never blocks and reports nothing to
// the caller: when the client is not connected or the queue is full the
// message is dropped and the drop is logged.
func (c *Client) Send(text string) {
	if !c.connected.Load() {
		c.logger.Warn("Dropping message, not connected", "error", domain.ErrNotConnected)
		return
	}
	select {
	case c.outbox <- text:
	default:
		c.logger.Warn("Dropping message, send queue full")
	}
}

// Close releases the connection. It is safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	c.connected.Store(false)
	if c.conn == nil {
		return nil
	}

	c.cancel()
	err := c.conn.close()
	c.wg.Wait()
	c.conn, c.cancel = nil, nil
	return err
}

func (c *Client) dispatch(f protocol.Frame) {
	if f.Type != protocol.TypeEvent {
		c.logger.Warn("Ignoring non-event frame", "type", f.Type, "target", f.Target)
		return
	}

	c.mu.RLock()
	handlers := append([]Handler(nil), c.handlers[f.Target]...)
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for channel", "target", f.Target)
		return
	}
	for _, h := range handlers {
		h(f.Payload)
	}
}

// release stops the goroutines of a previous, lost connection. Caller holds
// connMu.
func (c *Client) release() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.conn.close()
	c.wg.Wait()
	c.conn, c.cancel = nil, nil
}

func (c *Client) readLoop(ctx context.Context, cancel context.CancelFunc, t transport) {
	defer c.wg.Done()

	err := t.receive(ctx, c.dispatch)
	lost := ctx.Err() == nil
	c.connected.Store(false)
	cancel()
	if lost {
		c.logger.Error("Chat connection lost", "transport", t.name(), "error", err)
	}
}

func (c *Client) writeLoop(ctx context.Context, t transport) {
	defer c.wg.Done()

	for {
		select {
		case text := <-c.outbox:
			if err := t.send(ctx, text); err != nil && ctx.Err() == nil {
				c.logger.Error("Failed to send message", "transport", t.name(), "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// ChannelInfo describes one channel the hub exposes.
type ChannelInfo struct {
	Name        string `json:"name"`
	Direction   string `json:"direction"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// Channels fetches the hub's channel list over HTTP. It does not need an open
// connection.
func (c *Client) Channels(ctx context.Context) ([]ChannelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.httpURL+"/channels", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list channels: unexpected status %d", resp.StatusCode)
	}
	var out []ChannelInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode channels: %w", err)
	}
	return out, nil
}
