package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/liaptui/backend/internal/game"
	"github.com/liaptui/backend/internal/ws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRemoveRoomLogsFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.WarnLevel)
	rooms := game.NewManager(game.ManagerConfig{Options: game.DefaultOptions()})
	t.Cleanup(rooms.Shutdown)
	hub := ws.NewHub(10, nil)

	room, err := rooms.CreateRoom("zoe")
	require.NoError(t, err)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodDelete, "/", nil)

	removeRoom(c, rooms, hub, room.ID(), zap.New(core))
	assert.Zero(t, rooms.Count())
	assert.Zero(t, logs.Len())

	// a room the expiry checker already removed
	require.ErrorIs(t, rooms.Remove(context.Background(), room.ID()), game.ErrRoomNotFound)
	removeRoom(c, rooms, hub, room.ID(), zap.New(core))
	entries := logs.FilterMessage("removing abandoned room failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, room.ID(), entries[0].ContextMap()["room_id"])
}
