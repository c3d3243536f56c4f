package client

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

const defaultQueueSize = 64

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger connection errors and drops are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithPollingFallback switches to HTTP long polling when the WebSocket
// handshake fails.
func WithPollingFallback() Option {
	return func(c *Client) { c.pollingFallback = true }
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithHTTPClient replaces the HTTP client used for polling.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithQueueSize sets how many unsent messages Send may queue.
func WithQueueSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.outbox = make(chan string, n)
		}
	}
}
