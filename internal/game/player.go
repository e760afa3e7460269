package game

// SeatCount is the fixed number of seats in a room
const SeatCount = 4

// ConnectionStatus represents how a seat is currently driven
type ConnectionStatus string

const (
	StatusConnected     ConnectionStatus = "connected"
	StatusDisconnected  ConnectionStatus = "disconnected"
	StatusBotControlled ConnectionStatus = "bot_controlled"
)

// Player is a seated participant. Hand, Declared and CapturedPiles reset every round;
// Score and ZeroDeclareStreak carry across rounds.
type Player struct {
	Name              string           `json:"name"`
	Seat              int              `json:"seat"`
	IsBot             bool             `json:"is_bot"`
	Hand              []Piece          `json:"hand"`
	Declared          *int             `json:"declared,omitempty"`
	CapturedPiles     int              `json:"captured_piles"`
	Score             int              `json:"score"`
	Status            ConnectionStatus `json:"connection_status"`
	ZeroDeclareStreak int              `json:"zero_declare_streak"`
}

// NewPlayer creates a player for a seat. Bots start bot-controlled, humans start
// disconnected until their socket attaches.
func NewPlayer(name string, seat int, isBot bool) *Player {
	status := StatusDisconnected
	if isBot {
		status = StatusBotControlled
	}
	return &Player{Name: name, Seat: seat, IsBot: isBot, Status: status}
}

// BotDriven reports whether the bot controller acts for this seat
func (p *Player) BotDriven() bool {
	return p.IsBot || p.Status == StatusBotControlled
}

// HasDeclared reports whether the player declared this round
func (p *Player) HasDeclared() bool {
	return p.Declared != nil
}

// DeclaredValue returns the declaration or 0 when none was made
func (p *Player) DeclaredValue() int {
	if p.Declared == nil {
		return 0
	}
	return *p.Declared
}

// resetRound clears per-round state
func (p *Player) resetRound() {
	p.Hand = nil
	p.Declared = nil
	p.CapturedPiles = 0
}

// takePieces removes the pieces at the given hand indices and returns them in index order.
// Indices must already be validated.
func (p *Player) takePieces(indices []int) []Piece {
	remove := make(map[int]bool, len(indices))
	taken := make([]Piece, 0, len(indices))
	for _, i := range indices {
		remove[i] = true
		taken = append(taken, p.Hand[i])
	}
	kept := make([]Piece, 0, len(p.Hand)-len(indices))
	for i, piece := range p.Hand {
		if !remove[i] {
			kept = append(kept, piece)
		}
	}
	p.Hand = kept
	return taken
}

func (p *Player) clone() Player {
	c := *p
	c.Hand = append([]Piece(nil), p.Hand...)
	if p.Declared != nil {
		v := *p.Declared
		c.Declared = &v
	}
	return c
}
