package pubsub

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "chatwire-pubsub"

// TracingConfig holds configuration for OpenTelemetry tracing
type TracingConfig struct {
	Enabled     bool   // Whether tracing is enabled
	ServiceName string // Service name for traces
	ZipkinURL   string // Zipkin exporter URL
}

// SetupOTel initializes OpenTelemetry with a Zipkin exporter for bus
// observability. If config.Enabled is false, it returns a no-op tracer.
// The returned cleanup flushes and stops the exporter.
func SetupOTel(ctx context.Context, config TracingConfig) (trace.Tracer, func(), error) {
	if !config.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), func() {}, nil
	}

	exporter, err := zipkin.New(config.ZipkinURL)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", config.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("Failed to shut down tracer provider", "error", err)
		}
	}

	return tp.Tracer(tracerName), cleanup, nil
}
