package game

import (
	"sort"
	"strings"
)

// PlayType is the combination a set of pieces forms
type PlayType string

const (
	PlayInvalid           PlayType = "INVALID"
	PlaySingle            PlayType = "SINGLE"
	PlayPair              PlayType = "PAIR"
	PlayThreeOfAKind      PlayType = "THREE_OF_A_KIND"
	PlayStraight          PlayType = "STRAIGHT"
	PlayFourOfAKind       PlayType = "FOUR_OF_A_KIND"
	PlayExtendedStraight  PlayType = "EXTENDED_STRAIGHT"
	PlayExtendedStraight5 PlayType = "EXTENDED_STRAIGHT_5"
	PlayFiveOfAKind       PlayType = "FIVE_OF_A_KIND"
	PlayDoubleStraight    PlayType = "DOUBLE_STRAIGHT"
)

// Bounds on the opener's piece count
const (
	MinPlaySize = 1
	MaxPlaySize = 6
)

var straightGroups = [][]Kind{
	{General, Advisor, Elephant},
	{Chariot, Horse, Cannon},
}

// ClassifyPlay returns the play type formed by the pieces, or PlayInvalid
func ClassifyPlay(pieces []Piece) PlayType {
	n := len(pieces)
	if n == 0 || n > MaxPlaySize {
		return PlayInvalid
	}
	for _, p := range pieces {
		if !p.Valid() || p.Color != pieces[0].Color {
			return PlayInvalid
		}
	}
	if n == 1 {
		return PlaySingle
	}

	counts := make(map[Kind]int)
	for _, p := range pieces {
		counts[p.Kind]++
	}

	if len(counts) == 1 {
		switch {
		case n == 2:
			return PlayPair
		case pieces[0].Kind != Soldier:
			return PlayInvalid
		case n == 3:
			return PlayThreeOfAKind
		case n == 4:
			return PlayFourOfAKind
		case n == 5:
			return PlayFiveOfAKind
		}
		return PlayInvalid
	}

	group := straightGroupOf(counts)
	if group < 0 || len(counts) != 3 {
		return PlayInvalid
	}
	shape := make([]int, 0, 3)
	for _, c := range counts {
		shape = append(shape, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(shape)))

	switch {
	case n == 3:
		return PlayStraight
	case n == 4 && shape[0] == 2:
		return PlayExtendedStraight
	case n == 5 && shape[0] == 2 && shape[1] == 2:
		return PlayExtendedStraight5
	case n == 6 && group == 1 && shape[0] == 2 && shape[2] == 2:
		return PlayDoubleStraight
	}
	return PlayInvalid
}

// straightGroupOf returns the index of the straight group holding every kind, or -1
func straightGroupOf(counts map[Kind]int) int {
	for i, group := range straightGroups {
		within := 0
		for _, k := range group {
			if counts[k] > 0 {
				within++
			}
		}
		if within == len(counts) {
			return i
		}
	}
	return -1
}

// Play is a classified set of pieces
type Play struct {
	Pieces []Piece  `json:"pieces"`
	Type   PlayType `json:"play_type"`
}

// NewPlay classifies the pieces into a play
func NewPlay(pieces []Piece) Play {
	return Play{Pieces: pieces, Type: ClassifyPlay(pieces)}
}

// Total returns the summed point value of the play
func (p Play) Total() int {
	return handTotal(p.Pieces)
}

func (p Play) strongest() (Piece, bool) {
	if len(p.Pieces) == 0 {
		return Piece{}, false
	}
	best := p.Pieces[0]
	for _, piece := range p.Pieces[1:] {
		if piece.Beats(best) {
			best = piece
		}
	}
	return best, true
}

// Outcome is the result of comparing two plays
type Outcome int

const (
	SecondWins Outcome = -1
	Tie        Outcome = 0
	FirstWins  Outcome = 1
)

// ComparePlays decides which of two plays ranks higher. An invalid play loses to a
// valid one; plays of different types do not compete and compare as a tie. Same-type
// plays compare by point total, then by their strongest piece.
func ComparePlays(a, b Play) Outcome {
	aValid, bValid := a.Type != PlayInvalid, b.Type != PlayInvalid
	switch {
	case !aValid && !bValid:
		return Tie
	case !bValid:
		return FirstWins
	case !aValid:
		return SecondWins
	case a.Type != b.Type:
		return Tie
	}

	if at, bt := a.Total(), b.Total(); at != bt {
		if at > bt {
			return FirstWins
		}
		return SecondWins
	}

	as, _ := a.strongest()
	bs, _ := b.strongest()
	switch {
	case as.Beats(bs):
		return FirstWins
	case bs.Beats(as):
		return SecondWins
	}
	return Tie
}

// ValidatePlay checks the hand indices a player submitted and returns the selected
// pieces. The opener chooses the count but must form a valid play; followers must
// match requiredCount.
func ValidatePlay(hand []Piece, indices []int, requiredCount int, isOpener bool) ([]Piece, error) {
	if len(indices) == 0 {
		return nil, validationError("EMPTY_PLAY", "select at least one piece")
	}
	seen := make(map[int]bool, len(indices))
	pieces := make([]Piece, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(hand) {
			return nil, validationError("PIECE_NOT_IN_HAND", "piece index %d is not in hand", i)
		}
		if seen[i] {
			return nil, validationError("DUPLICATE_PIECE", "piece index %d selected twice", i)
		}
		seen[i] = true
		pieces = append(pieces, hand[i])
	}

	if isOpener {
		if len(pieces) < MinPlaySize || len(pieces) > MaxPlaySize {
			return nil, validationError("BAD_PIECE_COUNT", "opening play must have %d-%d pieces, got %d", MinPlaySize, MaxPlaySize, len(pieces))
		}
		if ClassifyPlay(pieces) == PlayInvalid {
			return nil, validationError("INVALID_COMBINATION", "opening play %s is not a valid combination", describePieces(pieces))
		}
		return pieces, nil
	}

	if len(pieces) != requiredCount {
		return nil, validationError("BAD_PIECE_COUNT", "this turn requires %d pieces, got %d", requiredCount, len(pieces))
	}
	return pieces, nil
}

func describePieces(pieces []Piece) string {
	names := make([]string, len(pieces))
	for i, p := range pieces {
		names[i] = p.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

// Declaration bounds
const (
	MinDeclaration = 0
	MaxDeclaration = 8
	// ForbiddenTotal is the sum the four declarations may never reach
	ForbiddenTotal = 8
	// ZeroStreakLimit consecutive zero declarations bar a further zero
	ZeroStreakLimit = 2
)

// DeclarationSet holds the values a declarer may legally choose
type DeclarationSet struct {
	allowed [MaxDeclaration + 1]bool
}

// NewDeclarationSet builds the legal options for a declarer. The last declarer loses
// exactly the value completing ForbiddenTotal; a zero streak at the limit loses 0.
func NewDeclarationSet(prior []int, isLast bool, zeroStreak int) DeclarationSet {
	var s DeclarationSet
	for v := MinDeclaration; v <= MaxDeclaration; v++ {
		s.allowed[v] = true
	}
	if isLast {
		sum := 0
		for _, d := range prior {
			sum += d
		}
		if f := ForbiddenTotal - sum; f >= MinDeclaration && f <= MaxDeclaration {
			s.allowed[f] = false
		}
	}
	if zeroStreak >= ZeroStreakLimit {
		s.allowed[0] = false
	}
	return s
}

// Contains reports whether v is a legal choice
func (s DeclarationSet) Contains(v int) bool {
	return v >= MinDeclaration && v <= MaxDeclaration && s.allowed[v]
}

// Values returns the legal choices in ascending order
func (s DeclarationSet) Values() []int {
	vals := make([]int, 0, len(s.allowed))
	for v, ok := range s.allowed {
		if ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// ValidateDeclaration checks a declaration against the prior declarations of the round
func ValidateDeclaration(value int, prior []int, isLast bool, zeroStreak int) error {
	if value < MinDeclaration || value > MaxDeclaration {
		return validationError("DECLARATION_OUT_OF_RANGE", "declaration must be between %d and %d", MinDeclaration, MaxDeclaration)
	}
	if NewDeclarationSet(prior, isLast, zeroStreak).Contains(value) {
		return nil
	}
	if value == 0 && zeroStreak >= ZeroStreakLimit {
		return validationError("ZERO_STREAK", "cannot declare 0 after %d consecutive zero declarations", zeroStreak)
	}
	return validationError("TOTAL_EIGHT", "last declaration cannot make the total %d", ForbiddenTotal)
}

// WeakHandMode selects how hand weakness is measured
type WeakHandMode string

const (
	// WeakByTotal marks a hand weak when its summed points are at or below the threshold.
	WeakByTotal WeakHandMode = "total"
	// WeakByStrongest marks a hand weak when no piece is worth more than the threshold.
	WeakByStrongest WeakHandMode = "strongest"
)

// WeakHandRule configures weak-hand detection
type WeakHandRule struct {
	Mode      WeakHandMode
	Threshold int
}

// DefaultWeakHandRule flags hands with no piece above 9 points
var DefaultWeakHandRule = WeakHandRule{Mode: WeakByStrongest, Threshold: 9}

// HandStrength summarizes a dealt hand for the redeal check
type HandStrength struct {
	Total     int  `json:"total"`
	Strongest int  `json:"strongest"`
	Weak      bool `json:"weak"`
}

// EvaluateHand computes the strength of a hand under the rule
func EvaluateHand(hand []Piece, rule WeakHandRule) HandStrength {
	hs := HandStrength{Total: handTotal(hand)}
	for _, p := range hand {
		if v := p.PointValue(); v > hs.Strongest {
			hs.Strongest = v
		}
	}
	if len(hand) == 0 {
		return hs
	}
	switch rule.Mode {
	case WeakByTotal:
		hs.Weak = hs.Total <= rule.Threshold
	default:
		hs.Weak = hs.Strongest <= rule.Threshold
	}
	return hs
}

// IsWeakHand reports whether a hand is eligible for a redeal
func IsWeakHand(hand []Piece, rule WeakHandRule) bool {
	return EvaluateHand(hand, rule).Weak
}

func handTotal(pieces []Piece) int {
	total := 0
	for _, p := range pieces {
		total += p.PointValue()
	}
	return total
}
