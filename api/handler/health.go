package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/aniscrape/config"
	"github.com/use-agent/aniscrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// BrowserStatus reports whether the shared browser session is up.
type BrowserStatus interface {
	Running() bool
}

// Health returns a handler for GET /api/v1/health.
//
// The browser variant without a browser session reports "degraded". Chrome
// is launched lazily, so a healthy service may not be running it yet.
func Health(variant string, browser BrowserStatus, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		running := browser != nil && browser.Running()

		status := "healthy"
		if variant == config.VariantBrowser && browser == nil {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			Uptime:         time.Since(startTime).Round(time.Second).String(),
			Variant:        variant,
			BrowserRunning: running,
			Version:        Version,
		})
	}
}
