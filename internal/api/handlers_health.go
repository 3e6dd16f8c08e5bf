// handlers_health.go - Health check handlers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	backend Backend
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, b Backend) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		backend: b,
	}
}

// HandleHealth returns server health status and whether the backend answers
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	backendStatus := "ok"
	if h.backend != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.backend.Health(ctx); err != nil {
			backendStatus = "unreachable"
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"backend": backendStatus,
	})
}
