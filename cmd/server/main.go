package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/api"
	"github.com/liaptui/backend/internal/auth"
	"github.com/liaptui/backend/internal/config"
	"github.com/liaptui/backend/internal/database"
	"github.com/liaptui/backend/internal/game"
	"github.com/liaptui/backend/internal/logger"
	"github.com/liaptui/backend/internal/migrations"
	"github.com/liaptui/backend/internal/redis"
	"github.com/liaptui/backend/internal/ws"
	"go.uber.org/zap"
)

func main() {
	// Initialize configuration
	cfg := config.Load()

	zl, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mcfg := game.ManagerConfig{
		Logger:  zl,
		IdleTTL: cfg.RoomIdleTTL(),
	}

	// Initialize database (optional: game history)
	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			zl.Info("running DB migrations on startup")
			if err := migrations.RunMigrations(cfg.DatabaseURL, "migrations", zl); err != nil {
				zl.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			zl.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		mcfg.History = game.NewPostgresHistory(db)
	} else {
		zl.Warn("DATABASE_URL not set; game history disabled")
	}

	// Initialize Redis (optional: room snapshots)
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			zl.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		mcfg.Store = game.NewRedisStore(rdb, cfg.SnapshotTTL())
	} else {
		zl.Warn("REDIS_URL not set; rooms will not survive a restart")
	}

	hub := ws.NewHub(cfg.OfflineQueueSize, zl.Named("ws"))
	mcfg.Options = cfg.GameOptions()
	mcfg.Options.Sink = hub
	rooms := game.NewManager(mcfg)
	rooms.StartExpiryChecker(ctx, cfg.ExpiryCheckInterval, hub.DropRoom)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Deps{
		Config:  cfg,
		Rooms:   rooms,
		Hub:     hub,
		Tickets: auth.NewTickets(cfg.JWTSecret, cfg.TicketTTL()),
		Logger:  zl,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		zl.Info("starting Liap Tui server", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	rooms.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
}
