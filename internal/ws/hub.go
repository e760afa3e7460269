package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/liaptui/backend/internal/game"
	"go.uber.org/zap"
)

const sendBufferSize = 256

type seatKey struct {
	room   string
	player string
}

// Client represents a connected WebSocket client
type Client struct {
	conn   *websocket.Conn
	roomID string
	player string
	send   chan []byte
	closed bool // guarded by Hub.mu
}

func newClient(conn *websocket.Conn, roomID, player string) *Client {
	return &Client{conn: conn, roomID: roomID, player: player, send: make(chan []byte, sendBufferSize)}
}

func (c *Client) key() seatKey {
	return seatKey{room: c.roomID, player: c.player}
}

// Hub fans room events out to connected clients and queues them for humans who are
// offline. It implements game.Sink.
type Hub struct {
	mu        sync.Mutex
	clients   map[seatKey]*Client
	queues    map[seatKey]*OfflineQueue
	queueSize int
	log       *zap.Logger
}

// NewHub creates a new Hub
func NewHub(queueSize int, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[seatKey]*Client),
		queues:    make(map[seatKey]*OfflineQueue),
		queueSize: queueSize,
		log:       logger,
	}
}

// Publish delivers an event to every targeted seat. It runs under the room lock: the
// event is serialized once and handed to buffered channels, never written to a socket.
func (h *Hub) Publish(ev game.Event, seats []game.SeatInfo) {
	data, err := json.Marshal(eventMessage(ev))
	if err != nil {
		h.log.Error("marshal event", zap.String("room_id", ev.RoomID), zap.String("event_type", string(ev.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range seats {
		if !ev.Targets(s.Name) {
			continue
		}
		key := seatKey{room: ev.RoomID, player: s.Name}
		if c, ok := h.clients[key]; ok {
			h.deliverLocked(c, data)
			continue
		}
		if s.IsBot {
			continue
		}
		q, ok := h.queues[key]
		if !ok {
			q = NewOfflineQueue(h.queueSize)
			h.queues[key] = q
		}
		if !q.Push(ev.Type.Priority(), data) {
			h.log.Debug("offline message dropped", zap.String("room_id", ev.RoomID), zap.String("player", s.Name), zap.String("event_type", string(ev.Type)))
		}
	}
}

// deliverLocked never blocks. A client that cannot keep up is disconnected; it will
// resync from a snapshot when it comes back.
func (h *Hub) deliverLocked(c *Client, data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("client send buffer full, dropping connection", zap.String("room_id", c.roomID), zap.String("player", c.player))
		h.closeLocked(c)
	}
}

func (h *Hub) closeLocked(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if h.clients[c.key()] == c {
		delete(h.clients, c.key())
	}
}

// Attach registers a client for its seat, replacing any previous connection, and
// flushes messages queued while the player was offline
func (h *Hub) Attach(c *Client) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := c.key()
	if old, ok := h.clients[key]; ok {
		h.closeLocked(old)
	}
	h.clients[key] = c

	flushed := 0
	if q, ok := h.queues[key]; ok {
		for _, data := range q.Drain() {
			h.deliverLocked(c, data)
			flushed++
		}
		delete(h.queues, key)
	}
	return flushed
}

// Detach unregisters a client. It returns false when a newer connection already took
// over the seat, in which case the seat is still connected.
func (h *Hub) Detach(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	current := h.clients[c.key()] == c
	h.closeLocked(c)
	return current
}

// Send serializes v and queues it for one client
func (h *Hub) Send(c *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("marshal message", zap.String("player", c.player), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(c, data)
}

// Forget drops a player's connection and offline queue after they leave for good
func (h *Hub) Forget(roomID, player string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := seatKey{room: roomID, player: player}
	if c, ok := h.clients[key]; ok {
		h.closeLocked(c)
	}
	delete(h.queues, key)
}

// DropRoom closes every connection and clears every queue of a removed room
func (h *Hub) DropRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, c := range h.clients {
		if key.room == roomID {
			h.closeLocked(c)
		}
	}
	for key := range h.queues {
		if key.room == roomID {
			delete(h.queues, key)
		}
	}
}

// QueueLen returns how many messages wait for an offline player
func (h *Hub) QueueLen(roomID, player string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if q, ok := h.queues[seatKey{room: roomID, player: player}]; ok {
		return q.Len()
	}
	return 0
}

// Connected reports whether a player has a live socket
func (h *Hub) Connected(roomID, player string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[seatKey{room: roomID, player: player}]
	return ok
}
