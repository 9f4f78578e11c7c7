package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cardscrape/models"
	"github.com/use-agent/cardscrape/scraper"
)

// TeeTimes returns a handler for POST /api/tee-times/:course.
//
// Diagnostic placeholder: it reports the page title and size, never tee
// times.
func TeeTimes(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TeeTimeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid request body", err))
			return
		}

		resp, err := sc.ProbeTeeTimes(c.Request.Context(), c.Param("course"), req.URL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
