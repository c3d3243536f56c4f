// Package protocol defines the frames exchanged over a chat connection.
package protocol

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/nfrund/chatwire/internal/domain"
)

// FrameType tells whether a frame is a client invocation or a server event.
type FrameType string

const (
	TypeInvoke FrameType = "invoke" // client to server
	TypeEvent  FrameType = "event"  // server to client
)

// Frame is the envelope for every message on the connection. Target names a
// registered channel.
type Frame struct {
	Type    FrameType       `json:"type"`
	Target  string          `json:"target"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func newFrame(t FrameType, target string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", target, err)
	}
	return Frame{Type: t, Target: target, Payload: data}, nil
}

// NewInvocation builds a client to server frame.
func NewInvocation(target string, payload any) (Frame, error) {
	return newFrame(TypeInvoke, target, payload)
}

// NewEvent builds a server to client frame.
func NewEvent(target string, payload any) (Frame, error) {
	return newFrame(TypeEvent, target, payload)
}

// Encode returns the JSON form of f.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// Decode parses a frame. Frames without a known type or without a target are
// rejected with domain.ErrInvalidFrame.
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", domain.ErrInvalidFrame, err)
	}
	if f.Type != TypeInvoke && f.Type != TypeEvent {
		return Frame{}, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidFrame, f.Type)
	}
	if f.Target == "" {
		return Frame{}, fmt.Errorf("%w: missing target", domain.ErrInvalidFrame)
	}
	return f, nil
}

// DecodePayload unmarshals the frame payload into v.
func (f Frame) DecodePayload(v any) error {
	if len(f.Payload) == 0 {
		return fmt.Errorf("%w: %s has no payload", domain.ErrInvalidFrame, f.Target)
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", domain.ErrInvalidFrame, f.Target, err)
	}
	return nil
}
