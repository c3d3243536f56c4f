// Package hub is the real-time chat endpoint. It keeps the set of connected
// peers, dispatches their invocations to the chat service and fans out chat
// events from the bus to every peer.
package hub

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/config"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/protocol"
	"github.com/nfrund/chatwire/internal/pubsub"
)

// Options tunes a Hub.
type Options struct {
	// AllowedOrigins are host patterns accepted for the WebSocket handshake.
	// Empty accepts any origin.
	AllowedOrigins []string
	// PeerBuffer is the number of frames queued per peer before it is
	// dropped as too slow.
	PeerBuffer int
	// MaxMessageBytes limits the size of an inbound frame.
	MaxMessageBytes int64
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
}

// OptionsFromConfig reads hub options from the application config.
func OptionsFromConfig(cfg config.Provider) Options {
	return Options{
		AllowedOrigins:  cfg.GetAllowedOrigins(),
		PeerBuffer:      cfg.GetPeerBuffer(),
		MaxMessageBytes: cfg.GetMaxMessageBytes(),
		WriteTimeout:    cfg.GetWriteTimeout(),
	}
}

func (o Options) withDefaults() Options {
	if o.PeerBuffer <= 0 {
		o.PeerBuffer = 256
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 << 10
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// Hub owns the peer set. All peer set mutations happen on the run loop.
type Hub struct {
	service    chat.Service
	registry   *channels.Registry
	subscriber pubsub.Subscriber
	opts       Options
	logger     *slog.Logger

	peers      map[*Peer]bool
	register   chan *Peer
	unregister chan *Peer
	broadcast  chan []byte

	peerCount atomic.Int64
	started   atomic.Bool
	done      chan struct{}
}

// New creates a hub. Call Start before serving connections.
func New(service chat.Service, registry *channels.Registry, subscriber pubsub.Subscriber, opts Options) *Hub {
	return &Hub{
		service:    service,
		registry:   registry,
		subscriber: subscriber,
		opts:       opts.withDefaults(),
		logger:     slog.Default().With("component", "hub"),
		peers:      make(map[*Peer]bool),
		register:   make(chan *Peer),
		unregister: make(chan *Peer),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
	}
}

// Start subscribes the hub to chat events and runs the loop until ctx ends.
// It returns once the subscription is in place.
func (h *Hub) Start(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("hub already started")
	}

	if err := h.subscriber.Subscribe(ctx, chat.EventMessageAdded.Name(), h.handleMessageAdded); err != nil {
		return err
	}

	go h.run(ctx)
	return nil
}

// Done is closed when the run loop has exited.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	return int(h.peerCount.Load())
}

// Broadcast queues data for every connected peer. It is a no-op once the hub
// has stopped.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// handleMessageAdded turns a bus event into a MessageAdded frame.
func (h *Hub) handleMessageAdded(ctx context.Context, msg pubsub.Message) error {
	chatMsg, err := pubsub.Decode[domain.ChatMessage](msg)
	if err != nil {
		return err
	}

	frame, err := protocol.NewEvent(chat.MessageAdded.Name(), chatMsg)
	if err != nil {
		return err
	}
	data, err := frame.Encode()
	if err != nil {
		return err
	}

	h.Broadcast(data)
	return nil
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	h.logger.Info("Hub run loop started")

	for {
		select {
		case p := <-h.register:
			h.peers[p] = true
			h.peerCount.Store(int64(len(h.peers)))
			h.logger.Info("Peer registered", "peer_id", p.ID, "total_peers", len(h.peers))

		case p := <-h.unregister:
			if _, ok := h.peers[p]; ok {
				h.remove(p, websocket.StatusNormalClosure, "")
				h.logger.Info("Peer unregistered", "peer_id", p.ID, "total_peers", len(h.peers))
			}

		case data := <-h.broadcast:
			h.logger.Debug("Broadcasting frame", "recipient_count", len(h.peers))
			for p := range h.peers {
				select {
				case p.send <- data:
				default:
					// Full buffer: the peer is lagging or gone.
					h.remove(p, websocket.StatusPolicyViolation, "too slow")
					h.logger.Warn("Dropping slow peer", "peer_id", p.ID, "total_peers", len(h.peers))
				}
			}

		case <-ctx.Done():
			for p := range h.peers {
				h.remove(p, websocket.StatusGoingAway, "server shutting down")
			}
			h.logger.Info("Hub run loop stopped")
			return
		}
	}
}

// remove deletes p and closes its send queue. Only the run loop calls it.
func (h *Hub) remove(p *Peer, code websocket.StatusCode, reason string) {
	delete(h.peers, p)
	h.peerCount.Store(int64(len(h.peers)))
	p.closeCode = code
	p.closeReason = reason
	close(p.send)
}
