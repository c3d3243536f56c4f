package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Start runs the hub and the HTTP server. It blocks until ctx ends, an
// interrupt or terminate signal arrives, or the listener fails, then shuts
// everything down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	if err := s.Hub.Start(hubCtx); err != nil {
		s.close()
		return err
	}

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", s.Cfg.GetServerAddr())
		if err := s.E.Start(s.Cfg.GetServerAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server")
	case err, ok := <-listenErr:
		if ok {
			slog.Error("Server stopped", "error", err)
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Peers are closed with GoingAway before the listener drains.
	cancelHub()
	select {
	case <-s.Hub.Done():
	case <-shutdownCtx.Done():
	}

	if err := s.E.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}
	s.close()

	return runErr
}

// close releases the bus and flushes traces.
func (s *Server) close() {
	if err := s.Bus.Close(); err != nil {
		slog.Error("Failed to close message bus", "error", err)
	}
	s.tracing.Shutdown()
}
