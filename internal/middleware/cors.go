package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lockforge/backend/internal/config"
)

// CORSMiddleware returns a CORS middleware configured from CORS_ORIGINS.
// "*" (the development default) allows any origin.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"Accept", "Cache-Control", "X-Requested-With",
		},
		MaxAge: 12 * time.Hour,
	}

	allowAll := false
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
	}

	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowCredentials = true
	}

	return cors.New(corsConfig)
}
