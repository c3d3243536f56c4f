package pubsub_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/nfrund/chatwire/internal/pubsub"
	"github.com/nfrund/chatwire/internal/pubsub/mocks"
)

func TestTracedPublisher(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("test")

	ctrl := gomock.NewController(t)
	next := mocks.NewMockPublisher(ctrl)
	traced := pubsub.NewTracedPublisher(next, tracer)

	t.Run("records a span per publish", func(t *testing.T) {
		next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		err := traced.Publish(context.Background(), pubsub.Message{Topic: "chat.message.added", Payload: []byte("x")})
		require.NoError(t, err)

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		assert.Equal(t, "pubsub.publish.chat.message.added", spans[len(spans)-1].Name())
	})

	t.Run("marks failed publishes", func(t *testing.T) {
		next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		err := traced.Publish(context.Background(), pubsub.Message{Topic: "t"})
		require.Error(t, err)

		spans := recorder.Ended()
		assert.Equal(t, codes.Error, spans[len(spans)-1].Status().Code)
	})

	t.Run("close delegates", func(t *testing.T) {
		next.EXPECT().Close().Return(nil)
		assert.NoError(t, traced.Close())
	})
}

func TestSetupOTel_Disabled(t *testing.T) {
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), pubsub.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tracer)
	defer cleanup()

	_, span := tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}
