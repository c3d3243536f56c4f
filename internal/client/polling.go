package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/protocol"
)

// pollTransport talks to the hub's HTTP long-polling endpoints under base.
// Only messages added after the transport opened are delivered.
type pollTransport struct {
	http   *http.Client
	base   string
	cursor string
}

// openPolling reads the newest buffered message id from the hub and starts
// polling after it. The request also checks that the hub answers on base.
func openPolling(ctx context.Context, hc *http.Client, base string) (*pollTransport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/messages/history?limit=1", nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polling probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polling probe: unexpected status %d", resp.StatusCode)
	}

	var latest []domain.ChatMessage
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}

	t := &pollTransport{http: hc, base: base}
	if n := len(latest); n > 0 {
		t.cursor = latest[n-1].ID
	}
	return t, nil
}

func (t *pollTransport) name() string { return "polling" }

func (t *pollTransport) send(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("add message: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (t *pollTransport) receive(ctx context.Context, dispatch func(protocol.Frame)) error {
	for {
		msgs, err := t.poll(ctx)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			frame, err := protocol.NewEvent(chat.MessageAdded.Name(), m)
			if err != nil {
				return err
			}
			dispatch(frame)
			t.cursor = m.ID
		}
	}
}

// poll performs one long-poll request. A 204 yields no messages.
func (t *pollTransport) poll(ctx context.Context) ([]domain.ChatMessage, error) {
	target := t.base + "/messages"
	if t.cursor != "" {
		target += "?after=" + url.QueryEscape(t.cursor)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		var msgs []domain.ChatMessage
		if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
			return nil, fmt.Errorf("decode poll response: %w", err)
		}
		return msgs, nil
	default:
		return nil, fmt.Errorf("poll: unexpected status %d", resp.StatusCode)
	}
}

func (t *pollTransport) close() error { return nil }
