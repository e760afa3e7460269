package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrTicketInvalid = errors.New("ticket is invalid")
	ErrTicketExpired = errors.New("ticket has expired")
)

const ticketIssuer = "liaptui"

// ContextKey is where RequireTicket stores the verified claims
const ContextKey = "ticket"

// Claims bind a ticket to one seat in one room
type Claims struct {
	RoomID string `json:"room_id"`
	Player string `json:"player"`
	jwt.RegisteredClaims
}

// Tickets issues and verifies seat tickets. A ticket is what a client presents to
// reconnect to its seat, over HTTP or on the WebSocket handshake.
type Tickets struct {
	secret []byte
	ttl    time.Duration
}

// NewTickets creates a ticket service signing with HS256
func NewTickets(secret string, ttl time.Duration) *Tickets {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tickets{secret: []byte(secret), ttl: ttl}
}

// Issue signs a ticket for a seat
func (t *Tickets) Issue(roomID, player string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(t.ttl)
	claims := &Claims{
		RoomID: roomID,
		Player: player,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   player,
			Issuer:    ticketIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry of a ticket
func (t *Tickets) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTicketInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTicketExpired
		}
		return nil, ErrTicketInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.RoomID == "" || claims.Player == "" {
		return nil, ErrTicketInvalid
	}
	return claims, nil
}

// RequireTicket verifies the bearer ticket (or ?ticket=) and checks it belongs to the
// room in the :id path parameter
func RequireTicket(t *Tickets) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("ticket")
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
		if raw == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "ticket required"})
			return
		}

		claims, err := t.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": err.Error()})
			return
		}
		if id := c.Param("id"); id != "" && id != claims.RoomID {
			c.AbortWithStatusJSON(403, gin.H{"error": "ticket is for another room"})
			return
		}

		c.Set(ContextKey, claims)
		c.Next()
	}
}

// FromContext returns the claims stored by RequireTicket
func FromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
