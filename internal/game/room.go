package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a room
type Options struct {
	WinScore    int
	MaxRounds   int
	WeakHand    WeakHandRule
	BotMinDelay time.Duration
	BotMaxDelay time.Duration

	Rand      *rand.Rand
	Dealer    Dealer
	Bot       BotStrategy
	Scheduler Scheduler
	Sink      Sink
	Logger    *zap.Logger

	// OnChange receives the full state after every committed mutation
	OnChange func(RoomState)
	// OnGameOver receives the final result once
	OnGameOver func(GameResult)
}

// DefaultOptions returns the standard game settings
func DefaultOptions() Options {
	return Options{
		WinScore:    50,
		MaxRounds:   20,
		WeakHand:    DefaultWeakHandRule,
		BotMinDelay: 500 * time.Millisecond,
		BotMaxDelay: 1500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WinScore <= 0 {
		o.WinScore = d.WinScore
	}
	if o.MaxRounds < 0 {
		o.MaxRounds = 0
	}
	if o.WeakHand.Mode == "" {
		o.WeakHand = d.WeakHand
	}
	if o.BotMaxDelay < o.BotMinDelay {
		o.BotMaxDelay = o.BotMinDelay
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Dealer == nil {
		o.Dealer = ShuffleDealer{}
	}
	if o.Bot == nil {
		o.Bot = NewSimpleBot()
	}
	if o.Scheduler == nil {
		o.Scheduler = clockScheduler{}
	}
	if o.Sink == nil {
		o.Sink = nopSink{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// GameResult is the record of a finished game
type GameResult struct {
	RoomID     string         `json:"room_id"`
	Rounds     int            `json:"rounds"`
	Winner     string         `json:"winner"`
	Standings  []Standing     `json:"standings"`
	History    [][]RoundScore `json:"history"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

type botTimer struct {
	gen   uint64
	timer Timer
}

// Room is one game instance with four seats. All methods are safe for concurrent
// use; a single mutex serializes every action applied to the room.
type Room struct {
	mu   sync.Mutex
	id   string
	opts Options
	log  *zap.Logger
	rng  *rand.Rand

	host  string
	seats [SeatCount]*Player
	phase Phase

	round          int
	starter        int
	multiplier     int
	turn           int
	requiredCount  int
	turnType       PlayType
	turnOpener     int
	current        int
	turnPlays      []TurnPlay
	redealQueue    []int
	lastTurnWinner int
	lastTurn       *TurnResult

	roundStartScores  [SeatCount]int
	roundStartStreaks [SeatCount]int
	roundStartWinner  int
	roundStartSeat    int
	history           [][]RoundScore
	standings         []Standing
	resets            int

	seq      uint64
	timers   map[int]*botTimer
	timerGen uint64
	closed   bool

	createdAt time.Time
	startedAt time.Time
	updatedAt time.Time
}

// NewRoom creates a room in WAITING with the host seated
func NewRoom(id, host string, opts Options) (*Room, error) {
	opts = opts.withDefaults()
	now := time.Now()
	r := &Room{
		id:             id,
		opts:           opts,
		log:            opts.Logger.With(zap.String("room_id", id)),
		rng:            opts.Rand,
		phase:          PhaseWaiting,
		multiplier:     1,
		current:        -1,
		lastTurnWinner: -1,
		timers:         make(map[int]*botTimer),
		createdAt:      now,
		updatedAt:      now,
	}

	if host == "" {
		return nil, validationError("NAME_REQUIRED", "player name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.host = host
	r.emitLocked(EventRoomCreated, RoomCreatedPayload{Host: host})
	if _, err := r.joinLocked(host, false); err != nil {
		return nil, err
	}
	r.commitLocked()
	return r, nil
}

// ID returns the room id
func (r *Room) ID() string {
	return r.id
}

// Phase returns the current phase
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// Host returns the host's name
func (r *Room) Host() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.host
}

// Closed reports whether the room was torn down
func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// UpdatedAt returns the time of the last committed mutation
func (r *Room) UpdatedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatedAt
}

// HumanCount returns the number of seats held by humans
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.seats {
		if p != nil && !p.IsBot {
			n++
		}
	}
	return n
}

// Seats returns the public view of every occupied seat
func (r *Room) Seats() []SeatInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seatInfoLocked()
}

// Join seats a human in the lowest free seat
func (r *Room) Join(name string) (SeatInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkOpenLocked(); err != nil {
		return SeatInfo{}, err
	}
	p, err := r.joinLocked(name, false)
	if err != nil {
		return SeatInfo{}, err
	}
	r.commitLocked()
	return seatInfo(p), nil
}

// AddBot seats a bot. Only the host may add bots.
func (r *Room) AddBot(requester, name string) (SeatInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkOpenLocked(); err != nil {
		return SeatInfo{}, err
	}
	if requester != r.host {
		return SeatInfo{}, stateError("NOT_HOST", "only the host can add bots")
	}
	if name == "" {
		for i := 1; ; i++ {
			name = fmt.Sprintf("Bot %d", i)
			if r.playerLocked(name) == nil {
				break
			}
		}
	}
	p, err := r.joinLocked(name, true)
	if err != nil {
		return SeatInfo{}, err
	}
	r.emitLocked(EventBotAdded, PlayerJoinedPayload{Player: p.Name, Seat: p.Seat, IsBot: true})
	r.commitLocked()
	return seatInfo(p), nil
}

func (r *Room) joinLocked(name string, isBot bool) (*Player, error) {
	if name == "" {
		return nil, validationError("NAME_REQUIRED", "player name is required")
	}
	if r.phase != PhaseWaiting {
		return nil, stateError("GAME_IN_PROGRESS", "cannot join a room in %s", r.phase)
	}
	if r.playerLocked(name) != nil {
		return nil, ErrNameTaken
	}
	for seat := range r.seats {
		if r.seats[seat] == nil {
			p := NewPlayer(name, seat, isBot)
			r.seats[seat] = p
			r.emitLocked(EventPlayerJoined, PlayerJoinedPayload{Player: name, Seat: seat, IsBot: isBot})
			r.log.Info("player joined", zap.String("player", name), zap.Int("seat", seat), zap.Bool("bot", isBot))
			return p, nil
		}
	}
	return nil, ErrRoomFull
}

// Leave removes a player. In WAITING the seat is freed; once the game started the seat
// turns into a permanent bot.
func (r *Room) Leave(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkOpenLocked(); err != nil {
		return err
	}
	p := r.playerLocked(name)
	if p == nil {
		return ErrPlayerNotFound
	}

	replaced := r.phase != PhaseWaiting
	if replaced {
		p.IsBot = true
		p.Status = StatusBotControlled
	} else {
		r.seats[p.Seat] = nil
	}
	r.emitLocked(EventPlayerLeft, PlayerLeftPayload{Player: name, Seat: p.Seat, ReplacedByBot: replaced})
	r.log.Info("player left", zap.String("player", name), zap.Bool("replaced_by_bot", replaced))

	if name == r.host {
		r.host = ""
		for _, s := range r.seats {
			if s != nil && !s.IsBot {
				r.host = s.Name
				break
			}
		}
		r.emitLocked(EventHostChanged, HostChangedPayload{Host: r.host})
	}

	if replaced && r.current == p.Seat && r.phase.InProgress() {
		r.scheduleBotLocked(p.Seat)
	}
	r.commitLocked()
	return nil
}

// Start begins the game. Only the host may start, and all four seats must be filled.
func (r *Room) Start(requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkOpenLocked(); err != nil {
		return err
	}
	if r.phase != PhaseWaiting {
		return stateError("ALREADY_STARTED", "game already started")
	}
	if requester != r.host {
		return stateError("NOT_HOST", "only the host can start the game")
	}
	for _, p := range r.seats {
		if p == nil {
			return stateError("SEATS_NOT_FILLED", "all %d seats must be filled to start", SeatCount)
		}
	}

	for _, p := range r.seats {
		if p.Status == StatusDisconnected {
			p.Status = StatusBotControlled
		}
	}
	r.startedAt = time.Now()
	r.emitLocked(EventGameStarted, GameStartedPayload{Seats: r.seatInfoLocked(), WinScore: r.opts.WinScore, MaxRounds: r.opts.MaxRounds})
	r.log.Info("game started")
	r.startRoundLocked()
	r.commitLocked()
	return nil
}

// Redeal records a weak-handed player's answer to the redeal offer
func (r *Room) Redeal(name string, accept bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.actorLocked(name, PhaseRedealCheck)
	if err != nil {
		return err
	}
	r.redealLocked(p, accept)
	r.commitLocked()
	return nil
}

// Declare records a player's declaration
func (r *Room) Declare(name string, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.actorLocked(name, PhaseDeclaration)
	if err != nil {
		return err
	}
	if err := r.declareLocked(p, value); err != nil {
		return err
	}
	r.commitLocked()
	return nil
}

// Play submits the pieces at the given hand indices for the current turn
func (r *Room) Play(name string, indices []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.actorLocked(name, PhaseTurnPlay)
	if err != nil {
		return err
	}
	if err := r.playLocked(p, indices); err != nil {
		return err
	}
	r.commitLocked()
	return nil
}

// Disconnect hands a human's seat to the bot controller while a game runs
func (r *Room) Disconnect(name string) error {
	return r.DisconnectUnless(name, nil)
}

// DisconnectUnless is Disconnect guarded by reattached, which is evaluated under the
// room lock. A seat whose player already opened a new connection stays connected.
func (r *Room) DisconnectUnless(name string, reattached func() bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.playerLocked(name)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.IsBot || p.Status != StatusConnected {
		return nil
	}
	if reattached != nil && reattached() {
		return nil
	}

	if r.phase.InProgress() && !r.closed {
		p.Status = StatusBotControlled
		if r.current == p.Seat {
			r.scheduleBotLocked(p.Seat)
		}
	} else {
		p.Status = StatusDisconnected
	}
	r.emitLocked(EventPlayerDisconnected, PresencePayload{Player: name, Status: p.Status})
	r.log.Info("player disconnected", zap.String("player", name), zap.String("status", string(p.Status)))
	r.commitLocked()
	return nil
}

// Reconnect restores human control of a seat and cancels any pending bot decision
func (r *Room) Reconnect(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkOpenLocked(); err != nil {
		return err
	}
	p := r.playerLocked(name)
	if p == nil {
		return ErrPlayerNotFound
	}
	if p.IsBot {
		return stateError("SEAT_IS_BOT", "seat %d is bot-controlled permanently", p.Seat)
	}
	if p.Status == StatusConnected {
		return nil
	}

	r.cancelTimerLocked(p.Seat)
	p.Status = StatusConnected
	r.emitLocked(EventPlayerReconnected, PresencePayload{Player: name, Status: p.Status})
	r.log.Info("player reconnected", zap.String("player", name))
	if r.current == p.Seat && r.phase.InProgress() {
		r.promptLocked(p.Seat)
	}
	r.commitLocked()
	return nil
}

// Close tears the room down: pending bot timers are cancelled and further actions fail
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.cancelAllTimersLocked()
	r.closed = true
	r.current = -1
	r.log.Info("room closed")
}

// PendingBotTimers returns how many bot decisions are scheduled
func (r *Room) PendingBotTimers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

func (r *Room) checkOpenLocked() error {
	if r.closed {
		return ErrRoomClosed
	}
	return nil
}

func (r *Room) actorLocked(name string, phase Phase) (*Player, error) {
	if err := r.checkOpenLocked(); err != nil {
		return nil, err
	}
	p := r.playerLocked(name)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if r.phase != phase {
		return nil, stateError("WRONG_PHASE", "action not allowed in %s", r.phase)
	}
	if r.current != p.Seat {
		var turn string
		if r.current >= 0 && r.seats[r.current] != nil {
			turn = r.seats[r.current].Name
		}
		return nil, stateError("NOT_YOUR_TURN", "waiting for %s", turn)
	}
	return p, nil
}

func (r *Room) playerLocked(name string) *Player {
	for _, p := range r.seats {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

func (r *Room) players() []*Player {
	out := make([]*Player, 0, SeatCount)
	for _, p := range r.seats {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) seatInfoLocked() []SeatInfo {
	infos := make([]SeatInfo, 0, SeatCount)
	for _, p := range r.seats {
		if p != nil {
			infos = append(infos, seatInfo(p))
		}
	}
	return infos
}

func seatInfo(p *Player) SeatInfo {
	return SeatInfo{Name: p.Name, Seat: p.Seat, IsBot: p.IsBot, Status: p.Status}
}

func nextSeat(seat int) int {
	return (seat + 1) % SeatCount
}

// emitLocked stamps the next sequence number and hands the event to the sink
func (r *Room) emitLocked(t EventType, payload interface{}, recipients ...string) {
	r.seq++
	ev := Event{RoomID: r.id, Type: t, Payload: payload, Seq: r.seq, Recipients: recipients}
	r.opts.Sink.Publish(ev, r.seatInfoLocked())
}

func (r *Room) setPhaseLocked(to Phase) {
	if r.phase == to {
		return
	}
	from := r.phase
	r.phase = to
	r.emitLocked(EventPhaseChanged, PhaseChangedPayload{From: from, To: to, Round: r.round, Turn: r.turn})
}

func (r *Room) commitLocked() {
	r.updatedAt = time.Now()
	if r.opts.OnChange != nil {
		r.opts.OnChange(r.stateLocked())
	}
}
