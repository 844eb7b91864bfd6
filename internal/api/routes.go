package api

import (
	"github.com/gin-gonic/gin"
	"github.com/lockforge/backend/internal/api/handlers"
	"github.com/lockforge/backend/internal/config"
	"github.com/lockforge/backend/internal/game"
	"github.com/lockforge/backend/internal/middleware"
	"github.com/lockforge/backend/internal/ws"
)

// SetupRoutes configures all HTTP routes.
func SetupRoutes(router *gin.Engine, cfg *config.Config, gateway *ws.Gateway, matchmaker *game.Matchmaker, registry *game.Registry) {
	router.Use(middleware.CORSMiddleware(cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/status", handlers.ServerStatus(cfg, matchmaker, registry))
		v1.GET("/ws", gateway.HandleWebSocket)
	}
}
