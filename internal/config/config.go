package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Server
	Port        string
	CORSOrigins []string

	// Redis (optional integration bus; empty disables it)
	RedisURL string

	// Simulation clock
	TickRate int // ticks per second

	// Matchmaking
	GameMode              string
	MatchmakingIntervalMs int
	CountdownSeconds      int

	// Liveness (tick counts, converted to real time using TickRate)
	TimeoutTicks           int
	DisconnectTicks        int
	ReconnectGracePeriodMs int

	// Command submission window
	MaxTickBehind int
	MaxTickAhead  int

	// Reconnection catch-up
	CommandHistoryTicks int

	// Validation
	ValidateInputSequence bool

	// Desync detection
	EnableStateHashing     bool
	DesyncAction           string // "end-match" or "log-only"
	DesyncGracePeriodTicks int

	// Security
	AuthJWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", "*"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Simulation clock
		TickRate: getEnvInt("TICK_RATE", 20),

		// Matchmaking
		GameMode:              getEnv("GAME_MODE", "1v1"),
		MatchmakingIntervalMs: getEnvInt("MATCHMAKING_INTERVAL_MS", 1000),
		CountdownSeconds:      getEnvInt("COUNTDOWN_SECONDS", 5),

		// Liveness
		TimeoutTicks:           getEnvInt("TIMEOUT_TICKS", 40),
		DisconnectTicks:        getEnvInt("DISCONNECT_TICKS", 100),
		ReconnectGracePeriodMs: getEnvInt("RECONNECT_GRACE_PERIOD_MS", 30000),

		// Command submission window
		MaxTickBehind: getEnvInt("MAX_TICK_BEHIND", 10),
		MaxTickAhead:  getEnvInt("MAX_TICK_AHEAD", 5),

		// Reconnection catch-up
		CommandHistoryTicks: getEnvInt("COMMAND_HISTORY_TICKS", 200),

		// Validation
		ValidateInputSequence: getEnvBool("VALIDATE_INPUT_SEQUENCE", false),

		// Desync detection
		EnableStateHashing:     getEnvBool("ENABLE_STATE_HASHING", false),
		DesyncAction:           getEnv("DESYNC_ACTION", "end-match"),
		DesyncGracePeriodTicks: getEnvInt("DESYNC_GRACE_PERIOD_TICKS", 1),

		// Security
		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
