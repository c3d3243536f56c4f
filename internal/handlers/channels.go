package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/nfrund/chatwire/internal/channels"
)

// ChannelsHandler lists the channels available on the chat connection.
type ChannelsHandler struct {
	registry *channels.Registry
}

// NewChannelsHandler creates a ChannelsHandler.
func NewChannelsHandler(registry *channels.Registry) *ChannelsHandler {
	return &ChannelsHandler{registry: registry}
}

// List returns all registered channels sorted by name.
func (h *ChannelsHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, lo.Map(h.registry.Entries(), func(e channels.Entry, _ int) ChannelResponse {
		return NewChannelResponse(e)
	}))
}
