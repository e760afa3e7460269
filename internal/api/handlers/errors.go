package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/game"
)

// statusFor maps a game error category onto an HTTP status
func statusFor(err error) int {
	switch game.CategoryOf(err) {
	case game.CategoryValidation:
		return http.StatusBadRequest
	case game.CategoryState:
		return http.StatusConflict
	case game.CategoryResource:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	var ge *game.Error
	if errors.As(err, &ge) {
		body = gin.H{"error": ge.Message, "code": ge.Code, "category": ge.Category}
	}
	c.JSON(status, body)
}
