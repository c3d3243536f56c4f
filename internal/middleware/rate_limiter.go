package middleware

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter limits requests per client IP to perSecond, with a burst of the
// same size. Denied requests get a 429.
func RateLimiter(perSecond float64) echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		// In-memory store, suitable for a single instance.
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     int(math.Ceil(perSecond)),
			ExpiresIn: 3 * time.Minute,
		}),

		// We identify clients by their real IP address.
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("Rate limit exceeded", "client_ip", identifier)
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests. Please try again later.")
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
