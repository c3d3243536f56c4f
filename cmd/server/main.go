package main

import (
	"context"
	"log"

	"github.com/nfrund/chatwire/internal/config"
	"github.com/nfrund/chatwire/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create a new server instance; routes are registered by New.
	s, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := s.Start(context.Background()); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
}
