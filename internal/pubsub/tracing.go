package pubsub

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedPublisher wraps a Publisher and records one span per publish.
type TracedPublisher struct {
	next   Publisher
	tracer trace.Tracer
}

var _ Publisher = (*TracedPublisher)(nil)

// NewTracedPublisher decorates next with tracing.
func NewTracedPublisher(next Publisher, tracer trace.Tracer) *TracedPublisher {
	return &TracedPublisher{next: next, tracer: tracer}
}

// Publish wraps the publish operation with a span.
func (p *TracedPublisher) Publish(ctx context.Context, msg Message) error {
	ctx, span := p.tracer.Start(ctx, fmt.Sprintf("pubsub.publish.%s", msg.Topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.String("user.id", msg.UserID),
			attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
		),
	)
	defer span.End()

	if err := p.next.Publish(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Close closes the underlying publisher
func (p *TracedPublisher) Close() error {
	return p.next.Close()
}
