package hub

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coder/websocket"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/protocol"
)

// Peer is one connected client.
type Peer struct {
	ID     string
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	// Set by the run loop before send is closed.
	closeCode   websocket.StatusCode
	closeReason string
}

// readPump reads frames until the connection fails, then unregisters the peer.
func (h *Hub) readPump(ctx context.Context, p *Peer) {
	defer func() {
		select {
		case h.unregister <- p:
		case <-h.done:
		}
	}()

	p.conn.SetReadLimit(h.opts.MaxMessageBytes)

	for {
		_, data, err := p.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				p.logger.Info("Peer closed connection")
			} else if ctx.Err() == nil {
				p.logger.Debug("Peer read ended", "error", err)
			}
			return
		}
		h.dispatch(ctx, p, data)
	}
}

// dispatch handles one inbound frame. Anything the hub does not understand is
// logged and ignored; the connection stays open.
func (h *Hub) dispatch(ctx context.Context, p *Peer, data []byte) {
	frame, err := protocol.Decode(data)
	if err != nil {
		p.logger.Warn("Ignoring malformed frame", "error", err)
		return
	}
	if frame.Type != protocol.TypeInvoke {
		p.logger.Warn("Ignoring non-invoke frame", "type", frame.Type, "target", frame.Target)
		return
	}

	ch, err := h.registry.Resolve(frame.Target, channels.Inbound)
	if err != nil {
		p.logger.Warn("Ignoring frame for unusable channel", "target", frame.Target, "error", err)
		return
	}

	switch ch.Name() {
	case chat.AddMessage.Name():
		var text string
		if err := frame.DecodePayload(&text); err != nil {
			p.logger.Warn("Ignoring AddMessage with non-string payload", "error", err)
			return
		}
		// The invocation has no result for the caller; failures are only logged.
		if _, err := h.service.AddMessage(ctx, text); err != nil {
			p.logger.Error("AddMessage failed", "error", err)
		}
	default:
		p.logger.Warn("No handler for inbound channel", "target", ch.Name())
	}
}

// writePump writes queued frames until the run loop closes the queue, then
// closes the connection with the status chosen by the loop.
func (h *Hub) writePump(p *Peer) {
	for data := range p.send {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.WriteTimeout)
		err := p.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				p.logger.Warn("Peer write failed", "error", err)
			}
			// Drain so the run loop never blocks on this peer; readPump will
			// unregister it once the close below breaks its read.
			p.conn.CloseNow()
			for range p.send {
			}
			return
		}
	}

	code := p.closeCode
	if code == 0 {
		code = websocket.StatusNormalClosure
	}
	p.conn.Close(code, p.closeReason)
}
