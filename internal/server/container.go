package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/config"
	"github.com/nfrund/chatwire/internal/hub"
	"github.com/nfrund/chatwire/internal/pubsub"
	"github.com/nfrund/chatwire/internal/store"
)

// tracing bundles the tracer with the function that flushes it.
type tracing struct {
	Tracer   trace.Tracer
	Shutdown func()
}

// newInjector registers every server component. Components are built lazily
// the first time they are invoked.
func newInjector(cfg *config.Config) do.Injector {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue[config.Provider](i, cfg)

	do.Provide(i, func(i do.Injector) (*tracing, error) {
		cfg := do.MustInvoke[*config.Config](i)
		tracer, shutdown, err := pubsub.SetupOTel(context.Background(), pubsub.TracingConfig{
			Enabled:     cfg.TracingEnabled,
			ServiceName: cfg.TracingServiceName,
			ZipkinURL:   cfg.ZipkinURL,
		})
		if err != nil {
			return nil, fmt.Errorf("tracing: %w", err)
		}
		return &tracing{Tracer: tracer, Shutdown: shutdown}, nil
	})

	do.Provide(i, func(i do.Injector) (pubsub.Bus, error) {
		cfg := do.MustInvoke[config.Provider](i)
		switch cfg.GetBusDriver() {
		case config.BusKafka:
			return pubsub.NewKafkaBridge(pubsub.KafkaConfig{
				Brokers: cfg.GetKafkaBrokers(),
				Topic:   cfg.GetKafkaTopic(),
				GroupID: cfg.GetKafkaGroupID(),
			})
		default:
			return pubsub.NewWatermillBridge(cfg.GetPeerBuffer()), nil
		}
	})

	do.Provide(i, func(i do.Injector) (pubsub.Publisher, error) {
		bus := do.MustInvoke[pubsub.Bus](i)
		t := do.MustInvoke[*tracing](i)
		return pubsub.NewTracedPublisher(bus, t.Tracer), nil
	})

	do.Provide(i, func(i do.Injector) (store.Store, error) {
		return store.NewMemoryStore(do.MustInvoke[config.Provider](i).GetHistorySize()), nil
	})

	do.Provide(i, func(i do.Injector) (*channels.Registry, error) {
		reg := channels.NewRegistry()
		if err := chat.RegisterChannels(reg); err != nil {
			return nil, err
		}
		return reg, nil
	})

	do.Provide(i, func(i do.Injector) (chat.Service, error) {
		return chat.NewService(
			do.MustInvoke[pubsub.Publisher](i),
			do.MustInvoke[store.Store](i),
			do.MustInvoke[config.Provider](i).GetChatAuthor(),
		), nil
	})

	do.Provide(i, func(i do.Injector) (*hub.Hub, error) {
		return hub.New(
			do.MustInvoke[chat.Service](i),
			do.MustInvoke[*channels.Registry](i),
			do.MustInvoke[pubsub.Bus](i),
			hub.OptionsFromConfig(do.MustInvoke[config.Provider](i)),
		), nil
	})

	do.Provide(i, func(i do.Injector) (*echo.Echo, error) {
		return newEcho(), nil
	})

	return i
}
