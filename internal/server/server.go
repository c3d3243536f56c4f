package server

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/config"
	"github.com/nfrund/chatwire/internal/handlers"
	"github.com/nfrund/chatwire/internal/hub"
	"github.com/nfrund/chatwire/internal/logging"
	appmiddleware "github.com/nfrund/chatwire/internal/middleware"
	"github.com/nfrund/chatwire/internal/pubsub"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      config.Provider
	Hub      *hub.Hub
	Chat     chat.Service
	Channels *channels.Registry
	Bus      pubsub.Bus

	tracing *tracing
}

// New builds a server from cfg. Nothing listens until Start is called.
func New(cfg *config.Config) (*Server, error) {
	logging.New(cfg.LogFormat, cfg.LogLevel)

	i := newInjector(cfg)

	t, err := do.Invoke[*tracing](i)
	if err != nil {
		return nil, err
	}
	bus, err := do.Invoke[pubsub.Bus](i)
	if err != nil {
		t.Shutdown()
		return nil, fmt.Errorf("message bus: %w", err)
	}
	h, err := do.Invoke[*hub.Hub](i)
	if err != nil {
		t.Shutdown()
		bus.Close()
		return nil, err
	}

	s := &Server{
		E:        do.MustInvoke[*echo.Echo](i),
		Cfg:      cfg,
		Hub:      h,
		Chat:     do.MustInvoke[chat.Service](i),
		Channels: do.MustInvoke[*channels.Registry](i),
		Bus:      bus,
		tracing:  t,
	}
	s.RegisterRoutes()

	slog.Info("Server configured", "route", cfg.GetChatRoute(), "bus", cfg.GetBusDriver())
	return s, nil
}

// newEcho creates the echo instance with the global middleware chain.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(middleware.Recover())
	return e
}
