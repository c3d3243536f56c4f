package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/pubsub"
	"github.com/nfrund/chatwire/internal/pubsub/mocks"
	"github.com/nfrund/chatwire/internal/store"
)

var fixedTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(pub pubsub.Publisher, st store.Store) Service {
	return NewService(pub, st, "Anonymous",
		WithIDGenerator(func() string { return "msg-1" }),
		WithClock(func() time.Time { return fixedTime }),
	)
}

func TestService_AddMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	st := store.NewMemoryStore(10)
	svc := newTestService(pub, st)

	var published pubsub.Message
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, msg pubsub.Message) error {
			published = msg
			return nil
		}).Times(1)

	msg, err := svc.AddMessage(context.Background(), "hello")
	require.NoError(t, err)

	want := domain.ChatMessage{ID: "msg-1", Author: "Anonymous", Text: "hello", CreatedAt: fixedTime}
	assert.Equal(t, want, msg)

	assert.Equal(t, EventMessageAdded.Name(), published.Topic)
	decoded, err := pubsub.Decode[domain.ChatMessage](published)
	require.NoError(t, err)
	assert.Equal(t, want, decoded)

	assert.Equal(t, []domain.ChatMessage{want}, svc.History(0))
}

func TestService_AddMessageAcceptsAnyText(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	svc := NewService(pub, store.NewMemoryStore(10), "Anonymous")

	empty, err := svc.AddMessage(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", empty.Text)

	other, err := svc.AddMessage(context.Background(), "<script>alert(1)</script>")
	require.NoError(t, err)

	assert.NotEmpty(t, empty.ID)
	assert.NotEqual(t, empty.ID, other.ID)
	assert.Equal(t, time.UTC, other.CreatedAt.Location())
}

func TestService_AddMessagePublishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("bus closed"))

	st := store.NewMemoryStore(10)
	svc := newTestService(pub, st)

	msg, err := svc.AddMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.message.added")
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, 1, st.Len(), "the message stays in history")
}

func TestService_Since(t *testing.T) {
	ctrl := gomock.NewController(t)
	pub := mocks.NewMockPublisher(ctrl)
	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := NewService(pub, store.NewMemoryStore(10), "Anonymous")
	first, err := svc.AddMessage(context.Background(), "one")
	require.NoError(t, err)
	_, err = svc.AddMessage(context.Background(), "two")
	require.NoError(t, err)

	got, err := svc.Since(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "two", got[0].Text)
}

func TestRegisterChannels(t *testing.T) {
	reg := channels.NewRegistry()
	require.NoError(t, RegisterChannels(reg))

	assert.Equal(t, 3, reg.Count())

	ch, err := reg.Resolve("AddMessage", channels.Inbound)
	require.NoError(t, err)
	assert.Equal(t, AddMessage, ch)

	_, err = reg.Resolve("MessageAdded", channels.Inbound)
	assert.ErrorIs(t, err, domain.ErrDirection)

	assert.Error(t, RegisterChannels(reg), "registering twice is rejected")
}
