package game

// EventType names a room event
type EventType string

const (
	EventRoomCreated          EventType = "room_created"
	EventPlayerJoined         EventType = "player_joined"
	EventPlayerLeft           EventType = "player_left"
	EventHostChanged          EventType = "host_changed"
	EventBotAdded             EventType = "bot_added"
	EventGameStarted          EventType = "game_started"
	EventPhaseChanged         EventType = "phase_changed"
	EventRoundStarted         EventType = "round_started"
	EventHandDealt            EventType = "hand_dealt"
	EventRedealOffered        EventType = "redeal_offered"
	EventRedealDecided        EventType = "redeal_decided"
	EventDeclarationRequested EventType = "declaration_requested"
	EventDeclared             EventType = "declared"
	EventTurnStarted          EventType = "turn_started"
	EventPlayRequested        EventType = "play_requested"
	EventPlayed               EventType = "played"
	EventTurnResolved         EventType = "turn_resolved"
	EventRoundScored          EventType = "round_scored"
	EventGameEnded            EventType = "game_ended"
	EventPlayerDisconnected   EventType = "player_disconnected"
	EventPlayerReconnected    EventType = "player_reconnected"
	EventRoundReset           EventType = "round_reset"
	EventSnapshot             EventType = "snapshot"
)

// Priority ranks events for the offline queue
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityCritical
)

// Priority returns how important delivery of this event type is to an offline player
func (t EventType) Priority() Priority {
	switch t {
	case EventHandDealt, EventRedealOffered, EventDeclarationRequested, EventPlayRequested,
		EventTurnResolved, EventRoundScored, EventGameEnded, EventRoundReset, EventSnapshot:
		return PriorityCritical
	case EventPlayerDisconnected, EventPlayerReconnected:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// Event is emitted for every room mutation. Recipients restricts delivery to the named
// players; empty means every seat.
type Event struct {
	RoomID     string      `json:"room_id"`
	Type       EventType   `json:"event_type"`
	Payload    interface{} `json:"payload"`
	Seq        uint64      `json:"sequence_number"`
	Recipients []string    `json:"-"`
}

// Targets reports whether the event should reach the named player
func (e Event) Targets(name string) bool {
	if len(e.Recipients) == 0 {
		return true
	}
	for _, r := range e.Recipients {
		if r == name {
			return true
		}
	}
	return false
}

// Sink receives room events together with the seats they may reach. Rooms call Publish
// while holding their lock, so implementations must not block and must not call back
// into the room.
type Sink interface {
	Publish(ev Event, seats []SeatInfo)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ev Event, seats []SeatInfo)

// Publish calls f
func (f SinkFunc) Publish(ev Event, seats []SeatInfo) { f(ev, seats) }

type nopSink struct{}

func (nopSink) Publish(Event, []SeatInfo) {}

// SeatInfo is the public view of a seat
type SeatInfo struct {
	Name   string           `json:"name"`
	Seat   int              `json:"seat"`
	IsBot  bool             `json:"is_bot"`
	Status ConnectionStatus `json:"connection_status"`
}

// Event payloads

type RoomCreatedPayload struct {
	Host string `json:"host"`
}

type PlayerJoinedPayload struct {
	Player string `json:"player"`
	Seat   int    `json:"seat"`
	IsBot  bool   `json:"is_bot"`
}

type PlayerLeftPayload struct {
	Player        string `json:"player"`
	Seat          int    `json:"seat"`
	ReplacedByBot bool   `json:"replaced_by_bot"`
}

type HostChangedPayload struct {
	Host string `json:"host"`
}

type GameStartedPayload struct {
	Seats     []SeatInfo `json:"seats"`
	WinScore  int        `json:"win_score"`
	MaxRounds int        `json:"max_rounds"`
}

type PhaseChangedPayload struct {
	From  Phase `json:"from"`
	To    Phase `json:"to"`
	Round int   `json:"round"`
	Turn  int   `json:"turn"`
}

type RoundStartedPayload struct {
	Round      int    `json:"round"`
	Starter    string `json:"starter"`
	Multiplier int    `json:"multiplier"`
}

type HandDealtPayload struct {
	Round    int          `json:"round"`
	Hand     []Piece      `json:"hand"`
	Strength HandStrength `json:"strength"`
}

type RedealOfferedPayload struct {
	Player     string       `json:"player"`
	Strength   HandStrength `json:"strength"`
	Multiplier int          `json:"multiplier"`
}

type RedealDecidedPayload struct {
	Player     string `json:"player"`
	Accepted   bool   `json:"accepted"`
	Multiplier int    `json:"multiplier"`
	Starter    string `json:"starter"`
}

type DeclarationRequestedPayload struct {
	Player  string `json:"player"`
	Options []int  `json:"options"`
}

type DeclaredPayload struct {
	Player string `json:"player"`
	Value  int    `json:"value"`
	Total  int    `json:"total"`
}

type TurnStartedPayload struct {
	Turn    int    `json:"turn"`
	Starter string `json:"starter"`
}

type PlayRequestedPayload struct {
	Player        string   `json:"player"`
	Turn          int      `json:"turn"`
	RequiredCount int      `json:"required_count"`
	TurnType      PlayType `json:"turn_type,omitempty"`
}

type PlayedPayload struct {
	Player     string   `json:"player"`
	Turn       int      `json:"turn"`
	Pieces     []Piece  `json:"pieces"`
	PlayType   PlayType `json:"play_type"`
	PieceCount int      `json:"piece_count"`
}

type TurnResolvedPayload struct {
	Result   TurnResult     `json:"result"`
	Captured map[string]int `json:"captured"`
}

type RoundScoredPayload struct {
	Round      int          `json:"round"`
	Multiplier int          `json:"multiplier"`
	Scores     []RoundScore `json:"scores"`
}

type GameEndedPayload struct {
	Rounds    int        `json:"rounds"`
	Winner    string     `json:"winner"`
	Standings []Standing `json:"standings"`
}

type PresencePayload struct {
	Player string           `json:"player"`
	Status ConnectionStatus `json:"connection_status"`
}

type RoundResetPayload struct {
	Round  int    `json:"round"`
	Reason string `json:"reason"`
}
