package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/game"
)

// RecentGames lists finished games with their standings
func RecentGames(rooms *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		records, err := rooms.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"games": records})
	}
}
