package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/chatwire/internal/chat"
	"github.com/nfrund/chatwire/internal/domain"
	"github.com/nfrund/chatwire/internal/middleware"
)

// ChatHandler serves the HTTP long-polling fallback of the chat connection.
type ChatHandler struct {
	service     chat.Service
	pollTimeout time.Duration
}

// NewChatHandler creates a ChatHandler. A poll waits at most pollTimeout.
func NewChatHandler(service chat.Service, pollTimeout time.Duration) *ChatHandler {
	return &ChatHandler{service: service, pollTimeout: pollTimeout}
}

// PostMessage is the polling counterpart of the AddMessage invocation. It
// answers 202 with no body.
func (h *ChatHandler) PostMessage(c echo.Context) error {
	var req AddMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	if _, err := h.service.AddMessage(c.Request().Context(), *req.Text); err != nil {
		// The message is stored even if the broadcast failed; polling
		// clients will still see it.
		middleware.FromContext(c.Request().Context()).Error("AddMessage failed", "error", err)
	}

	return c.NoContent(http.StatusAccepted)
}

// History answers 200 with the buffered messages, oldest first, without
// waiting. Polling clients use the newest id as their starting cursor.
func (h *ChatHandler) History(c echo.Context) error {
	var req HistoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
	}

	msgs := h.service.History(req.Limit)
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}

// PollMessages long-polls for messages newer than the after cursor. It
// answers 200 with the messages, or 204 when none arrive in time.
func (h *ChatHandler) PollMessages(c echo.Context) error {
	var req PollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.pollTimeout)
	defer cancel()

	msgs, err := h.service.Since(ctx, req.After)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.NoContent(http.StatusNoContent)
		}
		// The client went away.
		return nil
	}

	return c.JSON(http.StatusOK, msgs)
}
