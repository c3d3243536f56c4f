package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports that the process is serving.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
