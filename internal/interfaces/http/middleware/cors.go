package middleware

import (
	"slices"
	"time"

	"github.com/factuurdesk/backend/internal/infrastructure/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// exposedHeaders lets browser clients read the download filename, the
// preview location and the rate limit state
var exposedHeaders = []string{
	"Content-Disposition",
	"Content-Length",
	"Location",
	RequestIDHeader,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
}

// CORS builds the CORS middleware from the HTTP configuration. Without
// configured origins cross-origin requests get no CORS headers.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	if len(cfg.CORSAllowOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	corsConfig := cors.Config{
		AllowMethods:  cfg.CORSAllowMethods,
		AllowHeaders:  cfg.CORSAllowHeaders,
		ExposeHeaders: exposedHeaders,
		MaxAge:        12 * time.Hour,
	}

	if slices.Contains(cfg.CORSAllowOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowOrigins
		corsConfig.AllowCredentials = true
	}

	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	}
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{"Accept", "Authorization", "Content-Type", "Origin", RequestIDHeader}
	} else if !slices.Contains(corsConfig.AllowHeaders, RequestIDHeader) {
		corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, RequestIDHeader)
	}

	return cors.New(corsConfig)
}
