package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chatwire/internal/domain"
)

func TestNewInvocation_WireFormat(t *testing.T) {
	f, err := NewInvocation("AddMessage", "hello")
	require.NoError(t, err)

	data, err := f.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"invoke","target":"AddMessage","payload":"hello"}`, string(data))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"invoke", `{"type":"invoke","target":"AddMessage","payload":"hi"}`, false},
		{"event", `{"type":"event","target":"MessageAdded","payload":{"id":"1"}}`, false},
		{"not json", `hello`, true},
		{"unknown type", `{"type":"ping","target":"AddMessage"}`, true},
		{"missing target", `{"type":"invoke","payload":"hi"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidFrame)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestFrame_DecodePayload(t *testing.T) {
	f, err := Decode([]byte(`{"type":"invoke","target":"AddMessage","payload":42}`))
	require.NoError(t, err)

	var text string
	assert.ErrorIs(t, f.DecodePayload(&text), domain.ErrInvalidFrame)

	empty := Frame{Type: TypeInvoke, Target: "AddMessage"}
	assert.ErrorIs(t, empty.DecodePayload(&text), domain.ErrInvalidFrame)

	f, err = Decode([]byte(`{"type":"invoke","target":"AddMessage","payload":"hi"}`))
	require.NoError(t, err)
	require.NoError(t, f.DecodePayload(&text))
	assert.Equal(t, "hi", text)
}
