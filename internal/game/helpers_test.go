package game

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	rGeneral  = Piece{General, Red}
	rAdvisor  = Piece{Advisor, Red}
	rElephant = Piece{Elephant, Red}
	rChariot  = Piece{Chariot, Red}
	rHorse    = Piece{Horse, Red}
	rCannon   = Piece{Cannon, Red}
	rSoldier  = Piece{Soldier, Red}
	bGeneral  = Piece{General, Black}
	bAdvisor  = Piece{Advisor, Black}
	bElephant = Piece{Elephant, Black}
	bChariot  = Piece{Chariot, Black}
	bHorse    = Piece{Horse, Black}
	bCannon   = Piece{Cannon, Black}
	bSoldier  = Piece{Soldier, Black}
)

func sorted(pieces ...Piece) []Piece {
	SortPieces(pieces)
	return pieces
}

// strongDeal has no weak hand; seat 0 holds the red general
func strongDeal() Deal {
	return Deal{
		sorted(rGeneral, rAdvisor, rChariot, rChariot, rHorse, rHorse, rCannon, rCannon),
		sorted(rAdvisor, rElephant, rSoldier, rSoldier, rSoldier, rSoldier, rSoldier, bSoldier),
		sorted(rElephant, bGeneral, bElephant, bElephant, bChariot, bChariot, bSoldier, bSoldier),
		sorted(bAdvisor, bAdvisor, bHorse, bHorse, bCannon, bCannon, bSoldier, bSoldier),
	}
}

// weakDeal gives seats 1, 2 and 3 hands without a piece above 9 points
func weakDeal() Deal {
	return Deal{
		sorted(rGeneral, rAdvisor, rAdvisor, rElephant, rElephant, bGeneral, bAdvisor, bAdvisor),
		sorted(rChariot, rChariot, rHorse, rHorse, rCannon, rCannon, rSoldier, rSoldier),
		sorted(bElephant, bElephant, bChariot, bChariot, bHorse, bHorse, rSoldier, rSoldier),
		sorted(bCannon, bCannon, bSoldier, bSoldier, bSoldier, bSoldier, bSoldier, rSoldier),
	}
}

// fixedDealer hands out the queued deals, then shuffles
type fixedDealer struct {
	mu    sync.Mutex
	deals []Deal
}

func (d *fixedDealer) Deal(rng *rand.Rand) Deal {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.deals) == 0 {
		return ShuffleDealer{}.Deal(rng)
	}
	next := d.deals[0]
	d.deals = d.deals[1:]
	var out Deal
	for i, h := range next {
		out[i] = append([]Piece(nil), h...)
	}
	return out
}

type manualTimer struct {
	s       *manualScheduler
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// manualScheduler records bot timers; tests fire them explicitly
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) active() []*manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext runs the oldest active timer. It returns false when none is pending.
func (s *manualScheduler) fireNext() bool {
	s.mu.Lock()
	var next *manualTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

// recordingSink keeps every published event
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(ev Event, _ []SeatInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *recordingSink) ofType(t EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type testRoom struct {
	*Room
	sched *manualScheduler
	sink  *recordingSink
}

var testPlayers = []string{"alice", "bob", "carol", "dave"}

func newTestOptions(deals ...Deal) (Options, *manualScheduler, *recordingSink) {
	sched := &manualScheduler{}
	sink := &recordingSink{}
	opts := DefaultOptions()
	opts.Rand = rand.New(rand.NewSource(7))
	opts.Dealer = &fixedDealer{deals: deals}
	opts.Scheduler = sched
	opts.Sink = sink
	return opts, sched, sink
}

// newHumanRoom seats four connected humans and starts the game
func newHumanRoom(t *testing.T, opts Options, sched *manualScheduler, sink *recordingSink) testRoom {
	t.Helper()
	r, err := NewRoom("room-1", testPlayers[0], opts)
	require.NoError(t, err)
	for _, name := range testPlayers[1:] {
		_, err := r.Join(name)
		require.NoError(t, err)
	}
	for _, name := range testPlayers {
		require.NoError(t, r.Reconnect(name))
	}
	require.NoError(t, r.Start(testPlayers[0]))
	return testRoom{Room: r, sched: sched, sink: sink}
}

func (tr testRoom) currentName(t *testing.T) string {
	t.Helper()
	st := tr.State()
	require.GreaterOrEqual(t, st.Current, 0, "no player to act in %s", st.Phase)
	return st.Players[st.Current].Name
}

func (tr testRoom) declareAll(t *testing.T, values ...int) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, tr.Declare(tr.currentName(t), v))
	}
}

// playLeading plays the first piece of whoever is to act until the round ends
func (tr testRoom) playLeading(t *testing.T) {
	t.Helper()
	for tr.Phase() == PhaseTurnPlay {
		require.NoError(t, tr.Play(tr.currentName(t), []int{0}))
	}
}
