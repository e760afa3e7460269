package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/auth"
	"github.com/liaptui/backend/internal/game"
	"github.com/liaptui/backend/internal/ws"
	"go.uber.org/zap"
)

const maxNameLength = 32

type nameRequest struct {
	Name string `json:"name"`
}

type seatResponse struct {
	RoomID    string        `json:"room_id"`
	Seat      game.SeatInfo `json:"seat"`
	Ticket    string        `json:"ticket"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func bindName(c *gin.Context, required bool) (string, bool) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil && required {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if required && name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return "", false
	}
	if len(name) > maxNameLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is too long"})
		return "", false
	}
	return name, true
}

func issueSeat(c *gin.Context, tickets *auth.Tickets, status int, roomID string, seat game.SeatInfo) {
	ticket, expiresAt, err := tickets.Issue(roomID, seat.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue ticket"})
		return
	}
	c.JSON(status, seatResponse{RoomID: roomID, Seat: seat, Ticket: ticket, ExpiresAt: expiresAt})
}

// lookupRoom resolves :id, rebuilding the room from its snapshot if needed
func lookupRoom(c *gin.Context, rooms *game.Manager) (*game.Room, bool) {
	room, err := rooms.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return room, true
}

// CreateRoom opens a room and seats the caller as host
func CreateRoom(rooms *game.Manager, tickets *auth.Tickets) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := bindName(c, true)
		if !ok {
			return
		}
		room, err := rooms.CreateRoom(name)
		if err != nil {
			respondError(c, err)
			return
		}
		issueSeat(c, tickets, http.StatusCreated, room.ID(), room.Seats()[0])
	}
}

// ListRooms returns the lobby
func ListRooms(rooms *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rooms.List()})
	}
}

// JoinRoom seats the caller in a waiting room
func JoinRoom(rooms *game.Manager, tickets *auth.Tickets) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := bindName(c, true)
		if !ok {
			return
		}
		room, ok := lookupRoom(c, rooms)
		if !ok {
			return
		}
		seat, err := room.Join(name)
		if err != nil {
			respondError(c, err)
			return
		}
		issueSeat(c, tickets, http.StatusOK, room.ID(), seat)
	}
}

// AddBot fills a seat with a bot. Host only.
func AddBot(rooms *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		name, ok := bindName(c, false)
		if !ok {
			return
		}
		room, ok := lookupRoom(c, rooms)
		if !ok {
			return
		}
		seat, err := room.AddBot(claims.Player, name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, seat)
	}
}

// StartGame starts a full room. Host only.
func StartGame(rooms *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		room, ok := lookupRoom(c, rooms)
		if !ok {
			return
		}
		if err := room.Start(claims.Player); err != nil {
			respondError(c, err)
			return
		}
		snap, err := room.Snapshot(claims.Player)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// GetRoomState returns the caller's snapshot
func GetRoomState(rooms *game.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		room, ok := lookupRoom(c, rooms)
		if !ok {
			return
		}
		snap, err := room.Snapshot(claims.Player)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// LeaveRoom gives up the caller's seat for good
func LeaveRoom(rooms *game.Manager, hub *ws.Hub, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		room, ok := lookupRoom(c, rooms)
		if !ok {
			return
		}
		if err := room.Leave(claims.Player); err != nil {
			respondError(c, err)
			return
		}
		hub.Forget(room.ID(), claims.Player)
		if room.HumanCount() == 0 && room.Phase() == game.PhaseWaiting {
			removeRoom(c, rooms, hub, room.ID(), logger)
		}
		c.Status(http.StatusNoContent)
	}
}

// removeRoom drops an abandoned room. Another request or the expiry checker may have
// removed it first.
func removeRoom(c *gin.Context, rooms *game.Manager, hub *ws.Hub, roomID string, logger *zap.Logger) {
	if err := rooms.Remove(c.Request.Context(), roomID); err != nil {
		logger.Warn("removing abandoned room failed", zap.String("room_id", roomID), zap.Error(err))
	}
	hub.DropRoom(roomID)
}
