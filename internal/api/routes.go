package api

import (
	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/api/handlers"
	"github.com/liaptui/backend/internal/auth"
	"github.com/liaptui/backend/internal/config"
	"github.com/liaptui/backend/internal/game"
	"github.com/liaptui/backend/internal/middleware"
	"github.com/liaptui/backend/internal/ws"
	"go.uber.org/zap"
)

// Deps are the services the routes are wired to
type Deps struct {
	Config  *config.Config
	Rooms   *game.Manager
	Hub     *ws.Hub
	Tickets *auth.Tickets
	Logger  *zap.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.CORSMiddleware(d.Config, d.Logger))

	if d.Config.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
	}

	wsHandler := ws.NewHandler(d.Hub, d.Rooms, d.Tickets, d.Logger)
	requireTicket := auth.RequireTicket(d.Tickets)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(d.Rooms))
		v1.GET("/games", handlers.RecentGames(d.Rooms))

		rooms := v1.Group("/rooms")
		{
			rooms.POST("", handlers.CreateRoom(d.Rooms, d.Tickets))
			rooms.GET("", handlers.ListRooms(d.Rooms))
			rooms.POST("/:id/join", handlers.JoinRoom(d.Rooms, d.Tickets))
			rooms.POST("/:id/bots", requireTicket, handlers.AddBot(d.Rooms))
			rooms.POST("/:id/start", requireTicket, handlers.StartGame(d.Rooms))
			rooms.GET("/:id/state", requireTicket, handlers.GetRoomState(d.Rooms))
			rooms.DELETE("/:id/players/me", requireTicket, handlers.LeaveRoom(d.Rooms, d.Hub, d.Logger))
			rooms.GET("/:id/ws", middleware.WebSocketCORSCheck(d.Config), wsHandler.ServeRoom)
		}
	}
}
