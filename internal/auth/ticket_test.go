package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	tickets := NewTickets("test-secret", time.Hour)

	token, expiresAt, err := tickets.Issue("room-1", "alice")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := tickets.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "room-1", claims.RoomID)
	assert.Equal(t, "alice", claims.Player)
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTickets("secret-a", time.Hour).Issue("room-1", "alice")
	require.NoError(t, err)

	_, err = NewTickets("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrTicketInvalid)
}

func TestVerifyExpired(t *testing.T) {
	tickets := NewTickets("test-secret", time.Hour)
	tickets.ttl = -time.Minute

	token, _, err := tickets.Issue("room-1", "alice")
	require.NoError(t, err)

	_, err = tickets.Verify(token)
	assert.ErrorIs(t, err, ErrTicketExpired)
}

func TestRequireTicket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := NewTickets("test-secret", time.Hour)
	token, _, err := tickets.Issue("room-1", "alice")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/rooms/:id", RequireTicket(tickets), func(c *gin.Context) {
		claims, ok := FromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Player)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"bearer header", "/rooms/room-1", "Bearer " + token, http.StatusOK},
		{"query ticket", "/rooms/room-1?ticket=" + token, "", http.StatusOK},
		{"missing", "/rooms/room-1", "", http.StatusUnauthorized},
		{"garbage", "/rooms/room-1", "Bearer nope", http.StatusUnauthorized},
		{"other room", "/rooms/room-2", "Bearer " + token, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
