package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/liaptui/backend/internal/auth"
	"github.com/liaptui/backend/internal/game"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Handler upgrades seat connections and dispatches client actions to rooms
type Handler struct {
	hub     *Hub
	rooms   *game.Manager
	tickets *auth.Tickets
	log     *zap.Logger
}

// NewHandler creates the WebSocket entry point
func NewHandler(hub *Hub, rooms *game.Manager, tickets *auth.Tickets, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{hub: hub, rooms: rooms, tickets: tickets, log: logger}
}

// ServeRoom handles GET /rooms/:id/ws?ticket=... . Connecting is how a player
// reconnects: queued messages are flushed, the seat returns to human control, and the
// client receives a full snapshot.
func (h *Handler) ServeRoom(c *gin.Context) {
	claims, err := h.tickets.Verify(c.Query("ticket"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if claims.RoomID != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "ticket is for another room"})
		return
	}

	room, err := h.rooms.Lookup(c.Request.Context(), claims.RoomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if _, err := room.Snapshot(claims.Player); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("room_id", claims.RoomID), zap.Error(err))
		return
	}

	client := newClient(conn, claims.RoomID, claims.Player)
	log := h.log.With(zap.String("room_id", claims.RoomID), zap.String("player", claims.Player))
	flushed := h.hub.Attach(client)
	go client.writePump(log)

	if err := room.Reconnect(claims.Player); err != nil {
		h.hub.Send(client, errorMessage(err))
		h.hub.Detach(client)
		return
	}
	h.sendSnapshot(client, room)
	log.Info("client connected", zap.Int("flushed", flushed))

	h.readPump(client, room, log)
	h.release(client, room, log)
}

// release gives the seat up after its socket closed
func (h *Handler) release(c *Client, room *game.Room, log *zap.Logger) {
	if h.hub.Detach(c) {
		h.disconnectSeat(c, room, log)
	}
}

// disconnectSeat hands a detached client's seat to the bot. A newer socket for the same
// seat may attach after Detach, so the room re-checks the hub under its own lock.
func (h *Handler) disconnectSeat(c *Client, room *game.Room, log *zap.Logger) {
	err := room.DisconnectUnless(c.player, func() bool {
		return h.hub.Connected(c.roomID, c.player)
	})
	if err != nil {
		log.Warn("disconnect failed", zap.Error(err))
		return
	}
	log.Info("client disconnected")
}

func (h *Handler) sendSnapshot(c *Client, room *game.Room) {
	snap, err := room.Snapshot(c.player)
	if err != nil {
		h.hub.Send(c, errorMessage(err))
		return
	}
	h.hub.Send(c, snapshotMessage(snap))
}

// readPump reads client actions until the connection fails
func (h *Handler) readPump(c *Client, room *game.Room, log *zap.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.hub.Send(c, ErrorMessage{Type: "error", Code: "BAD_MESSAGE", Message: "message is not valid JSON"})
			continue
		}
		h.dispatch(c, room, msg, log)
	}
}

func (h *Handler) dispatch(c *Client, room *game.Room, msg WSMessage, log *zap.Logger) {
	var err error
	switch msg.Type {
	case "declare":
		var d DeclareData
		if err = decodeData(msg.Data, &d); err == nil {
			err = room.Declare(c.player, d.Value)
		}
	case "play":
		var d PlayData
		if err = decodeData(msg.Data, &d); err == nil {
			err = room.Play(c.player, d.Indices)
		}
	case "redeal":
		var d RedealData
		if err = decodeData(msg.Data, &d); err == nil {
			err = room.Redeal(c.player, d.Accept)
		}
	case "get_state":
		h.sendSnapshot(c, room)
		return
	case "ping":
		h.hub.Send(c, map[string]string{"type": "pong"})
		return
	default:
		h.hub.Send(c, ErrorMessage{Type: "error", Code: "UNKNOWN_MESSAGE", Message: "unknown message type " + msg.Type})
		return
	}

	if err != nil {
		log.Debug("action rejected", zap.String("type", msg.Type), zap.Error(err))
		h.hub.Send(c, errorMessage(err))
	}
}

func decodeData(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return &game.Error{Category: game.CategoryValidation, Code: "BAD_MESSAGE", Message: "message data is required"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &game.Error{Category: game.CategoryValidation, Code: "BAD_MESSAGE", Message: "message data is malformed"}
	}
	return nil
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: the connection was replaced or cleaned up.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("websocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("websocket ping error", zap.Error(err))
				return
			}
		}
	}
}
