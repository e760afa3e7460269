package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/auth"
	"github.com/liaptui/backend/internal/config"
	"github.com/liaptui/backend/internal/game"
	"github.com/liaptui/backend/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiEnv struct {
	router *gin.Engine
	rooms  *game.Manager
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub(100, nil)
	opts := game.DefaultOptions()
	opts.Sink = hub
	// keep bots from acting while requests are asserted
	opts.BotMinDelay = time.Hour
	opts.BotMaxDelay = time.Hour
	rooms := game.NewManager(game.ManagerConfig{Options: opts})
	t.Cleanup(rooms.Shutdown)

	router := gin.New()
	SetupRoutes(router, Deps{
		Config:  &config.Config{Environment: "development"},
		Rooms:   rooms,
		Hub:     hub,
		Tickets: auth.NewTickets("test-secret", time.Hour),
		Logger:  zap.NewNop(),
	})
	return &apiEnv{router: router, rooms: rooms}
}

func (e *apiEnv) do(t *testing.T, method, path, ticket string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ticket != "" {
		req.Header.Set("Authorization", "Bearer "+ticket)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type seatBody struct {
	RoomID string        `json:"room_id"`
	Seat   game.SeatInfo `json:"seat"`
	Ticket string        `json:"ticket"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestRoomLifecycle(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"name": "alice"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var alice seatBody
	decode(t, w, &alice)
	assert.NotEmpty(t, alice.Ticket)
	assert.Equal(t, 0, alice.Seat.Seat)
	roomPath := "/api/v1/rooms/" + alice.RoomID

	w = env.do(t, http.MethodPost, roomPath+"/join", "", gin.H{"name": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bob seatBody
	decode(t, w, &bob)
	assert.Equal(t, 1, bob.Seat.Seat)

	w = env.do(t, http.MethodPost, roomPath+"/join", "", gin.H{"name": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errBody map[string]interface{}
	decode(t, w, &errBody)
	assert.Equal(t, "NAME_TAKEN", errBody["code"])

	w = env.do(t, http.MethodPost, roomPath+"/bots", bob.Ticket, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "only the host adds bots")

	for i := 0; i < 2; i++ {
		w = env.do(t, http.MethodPost, roomPath+"/bots", alice.Ticket, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/v1/rooms", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var lobby struct {
		Rooms []game.RoomSummary `json:"rooms"`
	}
	decode(t, w, &lobby)
	require.Len(t, lobby.Rooms, 1)
	assert.Len(t, lobby.Rooms[0].Seats, game.SeatCount)

	w = env.do(t, http.MethodPost, roomPath+"/start", bob.Ticket, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, roomPath+"/start", alice.Ticket, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap game.Snapshot
	decode(t, w, &snap)
	assert.Equal(t, "alice", snap.Viewer)
	assert.True(t, snap.Phase.InProgress())
	for _, p := range snap.Players {
		if p.Name == "alice" {
			assert.Len(t, p.Hand, game.HandSize)
		} else {
			assert.Empty(t, p.Hand)
		}
	}

	w = env.do(t, http.MethodGet, roomPath+"/state", bob.Ticket, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &snap)
	assert.Equal(t, "bob", snap.Viewer)

	w = env.do(t, http.MethodPost, roomPath+"/join", "", gin.H{"name": "carol"})
	assert.Equal(t, http.StatusConflict, w.Code, "game already running")
}

func TestLeavingLastHumanRemovesWaitingRoom(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"name": "zoe"})
	require.Equal(t, http.StatusCreated, w.Code)
	var zoe seatBody
	decode(t, w, &zoe)
	roomPath := "/api/v1/rooms/" + zoe.RoomID

	w = env.do(t, http.MethodDelete, roomPath+"/players/me", zoe.Ticket, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, env.rooms.Count())

	w = env.do(t, http.MethodGet, roomPath+"/state", zoe.Ticket, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketRequired(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"name": "alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	var alice seatBody
	decode(t, w, &alice)
	w = env.do(t, http.MethodPost, "/api/v1/rooms", "", gin.H{"name": "zoe"})
	require.Equal(t, http.StatusCreated, w.Code)
	var zoe seatBody
	decode(t, w, &zoe)

	roomPath := "/api/v1/rooms/" + alice.RoomID
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, roomPath+"/state", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, roomPath+"/state", "forged", nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, roomPath+"/state", zoe.Ticket, nil).Code)
}

func TestRequestValidation(t *testing.T) {
	env := newAPIEnv(t)

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
	}{
		{"missing name", "/api/v1/rooms", gin.H{}, http.StatusBadRequest},
		{"blank name", "/api/v1/rooms", gin.H{"name": "   "}, http.StatusBadRequest},
		{"name too long", "/api/v1/rooms", gin.H{"name": "abcdefghijklmnopqrstuvwxyz0123456789"}, http.StatusBadRequest},
		{"unknown room", "/api/v1/rooms/nope/join", gin.H{"name": "bob"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, "", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestHealthAndGames(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	decode(t, w, &health)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(0), health["rooms"])

	w = env.do(t, http.MethodGet, "/api/v1/games", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"games":[]}`, w.Body.String())
}

func TestWebSocketRouteChecksOrigin(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rooms/x/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
