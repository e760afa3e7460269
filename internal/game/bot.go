package game

import (
	"sort"
	"time"
)

// BotContext is the view of the room a bot decides from
type BotContext struct {
	Round              int
	Turn               int
	Seat               int
	Declared           int
	Captured           int
	DeclarationOptions []int
	IsOpener           bool
	RequiredCount      int
	TurnType           PlayType
	Plays              []TurnPlay
}

// BotStrategy decides actions for bot-driven seats. Implementations must be pure with
// respect to the room: they only see copies.
type BotStrategy interface {
	ChooseDeclaration(hand []Piece, ctx BotContext) int
	ChoosePlay(hand []Piece, ctx BotContext) []int
	DecideRedeal(hand []Piece) bool
}

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Scheduler runs delayed bot decisions
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SimpleBot is the default heuristic strategy
type SimpleBot struct {
	// RedealBelowTotal accepts a redeal when the hand is worth less than this
	RedealBelowTotal int
}

// NewSimpleBot creates the default bot strategy
func NewSimpleBot() *SimpleBot {
	return &SimpleBot{RedealBelowTotal: 40}
}

// DecideRedeal accepts a redeal for low-value hands
func (b *SimpleBot) DecideRedeal(hand []Piece) bool {
	return handTotal(hand) < b.RedealBelowTotal
}

// ChooseDeclaration estimates the piles the hand can win and picks the nearest legal value
func (b *SimpleBot) ChooseDeclaration(hand []Piece, ctx BotContext) int {
	estimate := 0
	for _, p := range hand {
		if p.PointValue() >= 11 {
			estimate++
		}
	}
	for _, combo := range bestCombos(hand) {
		if len(combo) >= 3 {
			estimate += len(combo) / 2
		}
	}
	if estimate > MaxDeclaration {
		estimate = MaxDeclaration
	}
	return nearestOption(estimate, ctx.DeclarationOptions)
}

func nearestOption(want int, options []int) int {
	if len(options) == 0 {
		return want
	}
	best := options[0]
	for _, v := range options {
		if abs(v-want) < abs(best-want) {
			best = v
		}
	}
	return best
}

// ChoosePlay returns hand indices. Openers lead their best combination while they still
// need piles and their weakest piece otherwise; followers try to win cheaply when they
// need piles and shed low pieces otherwise.
func (b *SimpleBot) ChoosePlay(hand []Piece, ctx BotContext) []int {
	if len(hand) == 0 {
		return nil
	}
	needPiles := ctx.Captured < ctx.Declared

	if ctx.IsOpener {
		if needPiles {
			if best := strongestCombo(hand); best != nil {
				return best
			}
		}
		return []int{weakestIndex(hand)}
	}

	n := ctx.RequiredCount
	if n <= 0 || n > len(hand) {
		n = 1
		if len(hand) < n {
			n = len(hand)
		}
	}

	if needPiles {
		toBeat := bestPlaySoFar(ctx.Plays)
		var pick []int
		pickTotal := 0
		forEachSubset(len(hand), n, func(idx []int) {
			play := Play{Pieces: piecesAt(hand, idx), Type: ClassifyPlay(piecesAt(hand, idx))}
			if play.Type != ctx.TurnType {
				return
			}
			if toBeat != nil && ComparePlays(play, *toBeat) != FirstWins {
				return
			}
			if pick == nil || play.Total() < pickTotal {
				pick = append([]int(nil), idx...)
				pickTotal = play.Total()
			}
		})
		if pick != nil {
			return pick
		}
	}
	return lowestIndices(hand, n)
}

func bestPlaySoFar(plays []TurnPlay) *Play {
	var best *Play
	for _, tp := range plays {
		if !tp.Valid {
			continue
		}
		p := tp.play()
		if best == nil || ComparePlays(p, *best) == FirstWins {
			best = &p
		}
	}
	return best
}

// strongestCombo prefers bigger combinations, then higher totals
func strongestCombo(hand []Piece) []int {
	var pick []int
	pickTotal := 0
	for size := MaxPlaySize; size >= 2; size-- {
		if size > len(hand) {
			continue
		}
		forEachSubset(len(hand), size, func(idx []int) {
			pieces := piecesAt(hand, idx)
			if ClassifyPlay(pieces) == PlayInvalid {
				return
			}
			if t := handTotal(pieces); pick == nil || t > pickTotal {
				pick = append([]int(nil), idx...)
				pickTotal = t
			}
		})
		if pick != nil {
			return pick
		}
	}
	if len(hand) > 0 {
		best := 0
		for i, p := range hand {
			if p.Beats(hand[best]) {
				best = i
			}
		}
		if hand[best].PointValue() >= 11 {
			return []int{best}
		}
	}
	return nil
}

// bestCombos groups the hand into disjoint multi-piece combinations, largest first
func bestCombos(hand []Piece) [][]int {
	used := make(map[int]bool)
	var combos [][]int
	for size := MaxPlaySize; size >= 2; size-- {
		for {
			var found []int
			forEachSubset(len(hand), size, func(idx []int) {
				if found != nil {
					return
				}
				for _, i := range idx {
					if used[i] {
						return
					}
				}
				if ClassifyPlay(piecesAt(hand, idx)) != PlayInvalid {
					found = append([]int(nil), idx...)
				}
			})
			if found == nil {
				break
			}
			for _, i := range found {
				used[i] = true
			}
			combos = append(combos, found)
		}
	}
	return combos
}

func weakestIndex(hand []Piece) int {
	w := 0
	for i, p := range hand {
		if hand[w].Beats(p) {
			w = i
		}
	}
	return w
}

func lowestIndices(hand []Piece, n int) []int {
	idx := make([]int, len(hand))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return hand[idx[b]].Beats(hand[idx[a]])
	})
	out := append([]int(nil), idx[:n]...)
	sort.Ints(out)
	return out
}

func piecesAt(hand []Piece, idx []int) []Piece {
	out := make([]Piece, len(idx))
	for i, j := range idx {
		out[i] = hand[j]
	}
	return out
}

// forEachSubset calls fn with every ascending k-subset of [0, n). fn must copy idx to keep it.
func forEachSubset(n, k int, fn func(idx []int)) {
	if k <= 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		fn(idx)
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
