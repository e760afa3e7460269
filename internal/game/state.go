package game

import (
	"time"

	"go.uber.org/zap"
)

// RoomState is the complete, serializable state of a room. It is what the snapshot
// store persists and what RestoreRoom rebuilds a room from.
type RoomState struct {
	RoomID            string         `json:"room_id"`
	Host              string         `json:"host"`
	Phase             Phase          `json:"phase"`
	Round             int            `json:"round"`
	Starter           int            `json:"starter"`
	Multiplier        int            `json:"multiplier"`
	Turn              int            `json:"turn"`
	RequiredCount     int            `json:"required_count"`
	TurnType          PlayType       `json:"turn_type,omitempty"`
	TurnOpener        int            `json:"turn_opener"`
	Current           int            `json:"current"`
	TurnPlays         []TurnPlay     `json:"turn_plays"`
	RedealQueue       []int          `json:"redeal_queue"`
	LastTurnWinner    int            `json:"last_turn_winner"`
	LastTurn          *TurnResult    `json:"last_turn,omitempty"`
	Players           []Player       `json:"players"`
	RoundStartScores  [SeatCount]int `json:"round_start_scores"`
	RoundStartStreaks [SeatCount]int `json:"round_start_streaks"`
	RoundStartWinner  int            `json:"round_start_winner"`
	RoundStartSeat    int            `json:"round_start_seat"`
	History           [][]RoundScore `json:"history"`
	Standings         []Standing     `json:"standings,omitempty"`
	Seq               uint64         `json:"sequence_number"`
	Closed            bool           `json:"closed,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	StartedAt         time.Time      `json:"started_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// State returns a deep copy of the full room state
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() RoomState {
	st := RoomState{
		RoomID:            r.id,
		Host:              r.host,
		Phase:             r.phase,
		Round:             r.round,
		Starter:           r.starter,
		Multiplier:        r.multiplier,
		Turn:              r.turn,
		RequiredCount:     r.requiredCount,
		TurnType:          r.turnType,
		TurnOpener:        r.turnOpener,
		Current:           r.current,
		TurnPlays:         append([]TurnPlay(nil), r.turnPlays...),
		RedealQueue:       append([]int(nil), r.redealQueue...),
		LastTurnWinner:    r.lastTurnWinner,
		RoundStartScores:  r.roundStartScores,
		RoundStartStreaks: r.roundStartStreaks,
		RoundStartWinner:  r.roundStartWinner,
		RoundStartSeat:    r.roundStartSeat,
		History:           append([][]RoundScore(nil), r.history...),
		Standings:         append([]Standing(nil), r.standings...),
		Seq:               r.seq,
		Closed:            r.closed,
		CreatedAt:         r.createdAt,
		StartedAt:         r.startedAt,
		UpdatedAt:         r.updatedAt,
	}
	if r.lastTurn != nil {
		lt := *r.lastTurn
		st.LastTurn = &lt
	}
	for _, p := range r.seats {
		if p != nil {
			st.Players = append(st.Players, p.clone())
		}
	}
	return st
}

// PlayerView is a seat as seen by one player. Hand is only filled for the viewer.
type PlayerView struct {
	Name              string           `json:"name"`
	Seat              int              `json:"seat"`
	IsBot             bool             `json:"is_bot"`
	Status            ConnectionStatus `json:"connection_status"`
	HandCount         int              `json:"hand_count"`
	Hand              []Piece          `json:"hand,omitempty"`
	Declared          *int             `json:"declared,omitempty"`
	CapturedPiles     int              `json:"captured_piles"`
	Score             int              `json:"score"`
	ZeroDeclareStreak int              `json:"zero_declare_streak"`
}

// Snapshot is the personalized state a client resynchronizes from
type Snapshot struct {
	RoomID             string       `json:"room_id"`
	Viewer             string       `json:"viewer"`
	Host               string       `json:"host"`
	Phase              Phase        `json:"phase"`
	Round              int          `json:"round"`
	Starter            string       `json:"starter,omitempty"`
	Multiplier         int          `json:"multiplier"`
	Turn               int          `json:"turn"`
	RequiredCount      int          `json:"required_count"`
	TurnType           PlayType     `json:"turn_type,omitempty"`
	CurrentPlayer      string       `json:"current_player,omitempty"`
	TurnPlays          []TurnPlay   `json:"turn_plays"`
	LastTurn           *TurnResult  `json:"last_turn,omitempty"`
	Players            []PlayerView `json:"players"`
	DeclarationOptions []int        `json:"declaration_options,omitempty"`
	Standings          []Standing   `json:"standings,omitempty"`
	Seq                uint64       `json:"sequence_number"`
}

// Snapshot builds the view of the room for one seated player. It does not mutate the
// room, so repeated calls without an intervening action are equal.
func (r *Room) Snapshot(viewer string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	me := r.playerLocked(viewer)
	if me == nil {
		return Snapshot{}, ErrPlayerNotFound
	}

	snap := Snapshot{
		RoomID:        r.id,
		Viewer:        viewer,
		Host:          r.host,
		Phase:         r.phase,
		Round:         r.round,
		Multiplier:    r.multiplier,
		Turn:          r.turn,
		RequiredCount: r.requiredCount,
		TurnType:      r.turnType,
		TurnPlays:     append([]TurnPlay(nil), r.turnPlays...),
		Standings:     append([]Standing(nil), r.standings...),
		Seq:           r.seq,
	}
	if r.phase.InProgress() && r.seats[r.starter] != nil {
		snap.Starter = r.seats[r.starter].Name
	}
	if r.current >= 0 && r.seats[r.current] != nil {
		snap.CurrentPlayer = r.seats[r.current].Name
		if r.phase == PhaseDeclaration && r.current == me.Seat {
			snap.DeclarationOptions = r.declarationOptionsLocked(me)
		}
	}
	if r.lastTurn != nil {
		lt := *r.lastTurn
		snap.LastTurn = &lt
	}

	for _, p := range r.seats {
		if p == nil {
			continue
		}
		c := p.clone()
		v := PlayerView{
			Name:              c.Name,
			Seat:              c.Seat,
			IsBot:             c.IsBot,
			Status:            c.Status,
			HandCount:         len(c.Hand),
			Declared:          c.Declared,
			CapturedPiles:     c.CapturedPiles,
			Score:             c.Score,
			ZeroDeclareStreak: c.ZeroDeclareStreak,
		}
		if c.Name == viewer {
			v.Hand = c.Hand
		}
		snap.Players = append(snap.Players, v)
	}
	return snap, nil
}

// RestoreRoom rebuilds a room from a persisted state. No socket survives a restart, so
// humans come back disconnected: bot-controlled while a game runs, waiting otherwise.
// A pending bot decision is rescheduled.
func RestoreRoom(st RoomState, opts Options) (*Room, error) {
	if st.RoomID == "" {
		return nil, invariantError("snapshot has no room id")
	}
	if st.Closed {
		return nil, ErrRoomClosed
	}
	if len(st.Players) > SeatCount {
		return nil, invariantError("snapshot has %d players", len(st.Players))
	}
	opts = opts.withDefaults()
	r := &Room{
		id:                st.RoomID,
		opts:              opts,
		log:               opts.Logger.With(zap.String("room_id", st.RoomID)),
		rng:               opts.Rand,
		host:              st.Host,
		phase:             st.Phase,
		round:             st.Round,
		starter:           st.Starter,
		multiplier:        st.Multiplier,
		turn:              st.Turn,
		requiredCount:     st.RequiredCount,
		turnType:          st.TurnType,
		turnOpener:        st.TurnOpener,
		current:           st.Current,
		turnPlays:         append([]TurnPlay(nil), st.TurnPlays...),
		redealQueue:       append([]int(nil), st.RedealQueue...),
		lastTurnWinner:    st.LastTurnWinner,
		roundStartScores:  st.RoundStartScores,
		roundStartStreaks: st.RoundStartStreaks,
		roundStartWinner:  st.RoundStartWinner,
		roundStartSeat:    st.RoundStartSeat,
		history:           append([][]RoundScore(nil), st.History...),
		standings:         append([]Standing(nil), st.Standings...),
		seq:               st.Seq,
		timers:            make(map[int]*botTimer),
		createdAt:         st.CreatedAt,
		startedAt:         st.StartedAt,
		updatedAt:         st.UpdatedAt,
	}
	if r.multiplier < 1 {
		r.multiplier = 1
	}
	if st.LastTurn != nil {
		lt := *st.LastTurn
		r.lastTurn = &lt
	}

	for i := range st.Players {
		p := st.Players[i].clone()
		if p.Seat < 0 || p.Seat >= SeatCount || r.seats[p.Seat] != nil {
			return nil, invariantError("snapshot seat %d is invalid or duplicated", p.Seat)
		}
		if !p.IsBot {
			p.Status = StatusDisconnected
			if r.phase.InProgress() {
				p.Status = StatusBotControlled
			}
		}
		r.seats[p.Seat] = &p
	}
	if r.phase.InProgress() {
		for seat, p := range r.seats {
			if p == nil {
				return nil, invariantError("snapshot of a running game has an empty seat %d", seat)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase.InProgress() && r.current >= 0 && r.current < SeatCount {
		r.scheduleBotLocked(r.current)
	}
	r.log.Info("room restored", zap.String("phase", string(r.phase)), zap.Int("round", r.round), zap.Uint64("seq", r.seq))
	return r, nil
}
