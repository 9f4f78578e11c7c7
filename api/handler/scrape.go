package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cardscrape/models"
	"github.com/use-agent/cardscrape/scraper"
)

// ScrapeCourses returns a handler for POST /api/scrape-courses.
//
// Orchestration flow:
//  1. Parse & validate request (url + selector required).
//  2. Scraper.ScrapeCards → fetch, render, select, extract, assemble.
//  3. Return 200 with the assembled response, or a mapped error status.
func ScrapeCourses(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid request body", err))
			return
		}

		// ── 2. Scrape ───────────────────────────────────────────────
		resp, err := sc.ScrapeCards(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, resp)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, "unexpected error", err)
	}

	status := mapErrorToStatus(scrapeErr)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"path", c.FullPath(),
			"code", scrapeErr.Code,
			"error", err,
		)
	}
	c.JSON(status, scrapeErr.ToResponse())
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeFetch:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}
