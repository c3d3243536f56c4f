package hub

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/chatwire/internal/middleware"
)

// Handler returns the echo handler that upgrades a request to a chat
// connection.
func (h *Hub) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// ServeHTTP accepts the WebSocket and starts the peer's pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := middleware.FromContext(r.Context())

	select {
	case <-h.done:
		http.Error(w, "hub is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	acceptOpts := &websocket.AcceptOptions{OriginPatterns: h.opts.AllowedOrigins}
	if len(h.opts.AllowedOrigins) == 0 {
		acceptOpts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(w, r, acceptOpts)
	if err != nil {
		// Accept has already written the HTTP error response.
		logger.Warn("Failed to accept WebSocket", "error", err)
		return
	}

	p := &Peer{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.opts.PeerBuffer),
	}
	p.logger = logger.With("component", "hub", "peer_id", p.ID)

	select {
	case h.register <- p:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// The hijacked request context is not tied to the connection lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()
		h.writePump(p)
	}()
	go h.readPump(ctx, p)
}
