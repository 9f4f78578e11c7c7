package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/cardscrape/api/handler"
	"github.com/use-agent/cardscrape/api/middleware"
	"github.com/use-agent/cardscrape/config"
	"github.com/use-agent/cardscrape/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
func NewRouter(sc *scraper.Scraper, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowOrigins))

	r.GET("/", handler.Root())

	api := r.Group("/api")
	api.GET("/health", handler.Health(sc, startTime))
	api.POST("/scrape-courses", handler.ScrapeCourses(sc))
	api.POST("/tee-times/:course", handler.TeeTimes(sc))

	return r
}
