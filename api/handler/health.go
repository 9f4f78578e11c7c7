package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cardscrape/models"
	"github.com/use-agent/cardscrape/scraper"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Root returns a handler for GET /.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.RootResponse{Message: "Golf Platform API"})
	}
}

// Health returns a handler for GET /api/health.
//
// Reports pool utilisation. Status degrades when rendering is disabled or
// every browser is busy, since requests then fall back to static markup or
// queue for a checkout.
func Health(sc *scraper.Scraper, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := sc.Stats()

		status := "healthy"
		if !stats.RenderEnabled ||
			(stats.MaxBrowsers > 0 && stats.ActiveRenders >= stats.MaxBrowsers) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Version:   Version,
		})
	}
}
