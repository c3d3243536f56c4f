package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const loggerKey = contextKey("logger")

// Logger is a middleware that injects a request-scoped logger into the context
// and logs each completed request. The logger carries the request ID from the
// RequestID middleware, so it should be placed after it in the chain.
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Response().Header().Get(echo.HeaderXRequestID)
		requestLogger := slog.Default().With("request_id", reqID)

		// Create a new context with the logger and set it on the request.
		newCtx := WithLogger(c.Request().Context(), requestLogger)
		c.SetRequest(c.Request().WithContext(newCtx))

		start := time.Now()
		err := next(c)
		if err != nil {
			// Let echo write the response so the logged status is the real one.
			c.Error(err)
		}

		requestLogger.Debug("Request handled",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"duration", time.Since(start),
		)
		return nil
	}
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the request-scoped logger, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
