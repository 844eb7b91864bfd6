package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lockforge/backend/internal/config"
	"github.com/lockforge/backend/internal/game"
)

// ServerStatus reports live matchmaking and match figures plus the
// effective simulation settings, for dashboards and smoke checks.
func ServerStatus(cfg *config.Config, matchmaker *game.Matchmaker, registry *game.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := matchmaker.ModeInfo()
		c.JSON(http.StatusOK, gin.H{
			"queue_length":      matchmaker.QueueLen(),
			"active_matches":    registry.ActiveMatches(),
			"game_mode":         mode.Name,
			"players_per_match": mode.PlayersPerMatch,
			"teams_count":       mode.TeamsCount,
			"tick_rate":         cfg.TickRate,
			"countdown_seconds": cfg.CountdownSeconds,
			"state_hashing":     cfg.EnableStateHashing,
		})
	}
}
