// handlers_health.go - Health check handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version     string
	maxFileSize int64
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, maxFileSize int64) HealthHandler {
	return &HealthHandlerImpl{
		version:     version,
		maxFileSize: maxFileSize,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	})
}

// HandleStatus reports that the analyzer is ready and the upload limit
func (h *HealthHandlerImpl) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":        "running",
		"analyzer":      "ready",
		"max_file_size": formatSize(h.maxFileSize),
	})
}

// formatSize renders a byte count the way the upload form displays it.
func formatSize(n int64) string {
	switch {
	case n <= 0:
		return "unlimited"
	case n%(1<<30) == 0:
		return fmt.Sprintf("%dGB", n>>30)
	case n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
