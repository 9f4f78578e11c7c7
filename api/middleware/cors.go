package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns cross-origin middleware for the front end.
//
// Credentials are allowed. A single "*" origin allows every origin; browsers
// reject a literal "*" with credentials, so the request origin is echoed
// instead. An empty list allows none.
func CORS(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	switch {
	case len(allowOrigins) == 0:
		cfg.AllowOriginFunc = func(string) bool { return false }
	case len(allowOrigins) == 1 && allowOrigins[0] == "*":
		cfg.AllowOriginFunc = func(string) bool { return true }
	default:
		cfg.AllowOrigins = allowOrigins
	}

	return cors.New(cfg)
}
