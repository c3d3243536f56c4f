package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/chatwire/internal/channels"
	"github.com/nfrund/chatwire/internal/middleware"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChannelResponse is the DTO for one registered channel.
type ChannelResponse struct {
	Name         string    `json:"name"`
	Direction    string    `json:"direction"`
	Description  string    `json:"description"`
	Example      string    `json:"example,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewChannelResponse creates a ChannelResponse from a registry entry.
func NewChannelResponse(e channels.Entry) ChannelResponse {
	return ChannelResponse{
		Name:         e.Name,
		Direction:    string(e.Direction),
		Description:  e.Description,
		Example:      e.Example,
		RegisteredAt: e.RegisteredAt,
	}
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// HTTPErrorHandler renders every error returned by a handler as an
// ErrorResponse. Errors that are not echo.HTTPError become a 500 without
// leaking their text.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		middleware.FromContext(c.Request().Context()).Error("Unhandled request error", "error", err)
	}

	resp := ErrorResponse{Code: errorCode(status), Message: message}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, resp)
	}
	if writeErr != nil {
		middleware.FromContext(c.Request().Context()).Error("Failed to write error response", "error", writeErr)
	}
}
