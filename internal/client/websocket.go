package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/protocol"
)

const writeWait = 10 * time.Second

// wsTransport talks to the hub over one WebSocket.
type wsTransport struct {
	conn *websocket.Conn
	// gorilla allows a single concurrent writer.
	writeMu sync.Mutex
}

func dialWebSocket(ctx context.Context, dialer *websocket.Dialer, url string) (*wsTransport, error) {
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) name() string { return "websocket" }

func (t *wsTransport) send(ctx context.Context, text string) error {
	frame, err := protocol.NewInvocation(chat.AddMessage.Name(), text)
	if err != nil {
		return err
	}
	data, err := frame.Encode()
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) receive(ctx context.Context, dispatch func(protocol.Frame)) error {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			return err
		}
		frame, err := protocol.Decode(data)
		if err != nil {
			// Unknown frames are skipped, not fatal.
			continue
		}
		dispatch(frame)
	}
}

func (t *wsTransport) close() error {
	// WriteControl may run concurrently with other writers.
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}
