package server

import (
	"github.com/nfrund/chatwire/internal/handlers"
	"github.com/nfrund/chatwire/internal/middleware"
)

// RegisterRoutes sets up all the application routes. The chat route serves
// the WebSocket on GET and the polling fallback below it.
func (s *Server) RegisterRoutes() {
	route := s.Cfg.GetChatRoute()
	chatHandler := handlers.NewChatHandler(s.Chat, s.Cfg.GetPollTimeout())
	channelsHandler := handlers.NewChannelsHandler(s.Channels)
	rateLimiter := middleware.RateLimiter(s.Cfg.GetRateLimit())

	s.E.GET(route, s.Hub.Handler())

	g := s.E.Group(route)
	g.POST("/messages", chatHandler.PostMessage, rateLimiter)
	g.GET("/messages", chatHandler.PollMessages, rateLimiter)
	g.GET("/messages/history", chatHandler.History, rateLimiter)
	g.GET("/channels", channelsHandler.List)

	s.E.GET("/health", handlers.Health)
}
