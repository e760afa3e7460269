package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/liaptui/backend/internal/game"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Game Settings
	WinScore          int
	MaxRounds         int
	WeakHandMode      string
	WeakHandThreshold int
	BotMinDelay       time.Duration
	BotMaxDelay       time.Duration
	OfflineQueueSize  int

	// Room lifecycle
	RoomIdleMinutes     int
	SnapshotTTLMinutes  int
	ExpiryCheckInterval time.Duration

	// Security
	JWTSecret        string
	TicketTTLMinutes int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Game Settings
		WinScore:          getEnvInt("WIN_SCORE", 50),
		MaxRounds:         getEnvInt("MAX_ROUNDS", 20),
		WeakHandMode:      getEnv("WEAK_HAND_MODE", string(game.WeakByStrongest)),
		WeakHandThreshold: getEnvInt("WEAK_HAND_THRESHOLD", 9),
		BotMinDelay:       getEnvDuration("BOT_MIN_DELAY_MS", 500*time.Millisecond, time.Millisecond),
		BotMaxDelay:       getEnvDuration("BOT_MAX_DELAY_MS", 1500*time.Millisecond, time.Millisecond),
		OfflineQueueSize:  getEnvInt("OFFLINE_QUEUE_SIZE", 100),

		// Room lifecycle
		RoomIdleMinutes:     getEnvInt("ROOM_IDLE_MINUTES", 30),
		SnapshotTTLMinutes:  getEnvInt("SNAPSHOT_TTL_MINUTES", 120),
		ExpiryCheckInterval: getEnvDuration("EXPIRY_CHECK_SECONDS", time.Minute, time.Second),

		// Security
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		TicketTTLMinutes: getEnvInt("TICKET_TTL_MINUTES", 720),
	}
}

// GameOptions maps the game settings onto room options
func (c *Config) GameOptions() game.Options {
	opts := game.DefaultOptions()
	opts.WinScore = c.WinScore
	opts.MaxRounds = c.MaxRounds
	opts.WeakHand = game.WeakHandRule{Mode: game.WeakHandMode(c.WeakHandMode), Threshold: c.WeakHandThreshold}
	if opts.WeakHand.Mode != game.WeakByTotal {
		opts.WeakHand.Mode = game.WeakByStrongest
	}
	opts.BotMinDelay = c.BotMinDelay
	opts.BotMaxDelay = c.BotMaxDelay
	return opts
}

// RoomIdleTTL is how long a room may go without an action before eviction
func (c *Config) RoomIdleTTL() time.Duration {
	return time.Duration(c.RoomIdleMinutes) * time.Minute
}

// SnapshotTTL is how long a room snapshot outlives its last save
func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLMinutes) * time.Minute
}

// TicketTTL is the lifetime of a seat ticket
func (c *Config) TicketTTL() time.Duration {
	return time.Duration(c.TicketTTLMinutes) * time.Minute
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
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration reads an integer count of unit
func getEnvDuration(key string, defaultValue, unit time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}
