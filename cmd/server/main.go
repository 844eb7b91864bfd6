package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lockforge/backend/internal/api"
	"github.com/lockforge/backend/internal/config"
	"github.com/lockforge/backend/internal/game"
	"github.com/lockforge/backend/internal/redis"
	"github.com/lockforge/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	mode, err := game.LookupMode(cfg.GameMode)
	if err != nil {
		log.Fatalf("Invalid GAME_MODE: %v", err)
	}

	// Redis is an optional integration bus; the server runs without it.
	var pub *game.Publisher
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Printf("[REDIS] unavailable, lifecycle events disabled: %v", err)
		} else {
			defer rdb.Close()
			pub = game.NewPublisher(rdb)
			log.Printf("[REDIS] lifecycle event publisher enabled")
		}
	}

	hub := ws.NewHub()
	registry := game.NewRegistry(cfg, hub, pub)
	matchmaker := game.NewMatchmaker(cfg, mode, registry, pub)
	gateway := ws.NewGateway(cfg, hub, matchmaker, registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go matchmaker.Run(ctx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, cfg, gateway, matchmaker, registry)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting lockstep server on port %s (mode=%s tickRate=%d)", cfg.Port, mode.Name, cfg.TickRate)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown: stop matchmaking, end every room, drain HTTP.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()
	registry.StopAll(game.EndReasonShutdown)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
