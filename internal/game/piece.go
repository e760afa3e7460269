package game

import (
	"fmt"
	"math/rand"
	"sort"
)

// Color represents a piece color
type Color string

const (
	Red   Color = "RED"
	Black Color = "BLACK"
)

// Kind represents a piece kind
type Kind string

const (
	General  Kind = "GENERAL"
	Advisor  Kind = "ADVISOR"
	Elephant Kind = "ELEPHANT"
	Chariot  Kind = "CHARIOT"
	Horse    Kind = "HORSE"
	Cannon   Kind = "CANNON"
	Soldier  Kind = "SOLDIER"
)

// Deck and hand sizes
const (
	DeckSize = 32
	HandSize = DeckSize / SeatCount
)

var kindRank = map[Kind]int{
	General:  7,
	Advisor:  6,
	Elephant: 5,
	Chariot:  4,
	Horse:    3,
	Cannon:   2,
	Soldier:  1,
}

// copies of each kind per color
var kindCopies = map[Kind]int{
	General:  1,
	Advisor:  2,
	Elephant: 2,
	Chariot:  2,
	Horse:    2,
	Cannon:   2,
	Soldier:  5,
}

var redPoints = map[Kind]int{
	General:  14,
	Advisor:  12,
	Elephant: 10,
	Chariot:  8,
	Horse:    6,
	Cannon:   4,
	Soldier:  2,
}

var kindOrder = []Kind{General, Advisor, Elephant, Chariot, Horse, Cannon, Soldier}

// Piece is an immutable game tile
type Piece struct {
	Kind  Kind  `json:"kind"`
	Color Color `json:"color"`
}

// String returns a string representation of the piece (e.g., "GENERAL_RED")
func (p Piece) String() string {
	return fmt.Sprintf("%s_%s", p.Kind, p.Color)
}

// Rank returns the kind rank, 7 for GENERAL down to 1 for SOLDIER
func (p Piece) Rank() int {
	return kindRank[p.Kind]
}

// PointValue returns the point value used for play totals and hand strength.
// Black pieces are worth one point less than their red counterpart.
func (p Piece) PointValue() int {
	v, ok := redPoints[p.Kind]
	if !ok {
		return 0
	}
	if p.Color == Black {
		v--
	}
	return v
}

// Valid reports whether the piece belongs to the catalog
func (p Piece) Valid() bool {
	_, ok := kindRank[p.Kind]
	return ok && (p.Color == Red || p.Color == Black)
}

// Beats orders pieces by kind rank, tie-broken by color precedence (RED over BLACK)
func (p Piece) Beats(other Piece) bool {
	if p.Rank() != other.Rank() {
		return p.Rank() > other.Rank()
	}
	return p.Color == Red && other.Color == Black
}

// Catalog returns the full 32-piece multiset in a fixed order
func Catalog() []Piece {
	pieces := make([]Piece, 0, DeckSize)
	for _, color := range []Color{Red, Black} {
		for _, kind := range kindOrder {
			for i := 0; i < kindCopies[kind]; i++ {
				pieces = append(pieces, Piece{Kind: kind, Color: color})
			}
		}
	}
	return pieces
}

// SortPieces orders pieces strongest first
func SortPieces(pieces []Piece) {
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].Beats(pieces[j])
	})
}

// Deal is one split of the deck across the four seats, indexed by seat
type Deal [SeatCount][]Piece

// Dealer produces deals. Rooms use ShuffleDealer unless a test injects one.
type Dealer interface {
	Deal(rng *rand.Rand) Deal
}

// ShuffleDealer shuffles the full catalog and splits it evenly
type ShuffleDealer struct{}

// Deal shuffles a fresh catalog and hands out HandSize pieces per seat
func (ShuffleDealer) Deal(rng *rand.Rand) Deal {
	deck := Catalog()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	var d Deal
	for seat := 0; seat < SeatCount; seat++ {
		hand := make([]Piece, HandSize)
		copy(hand, deck[seat*HandSize:(seat+1)*HandSize])
		SortPieces(hand)
		d[seat] = hand
	}
	return d
}

// Size returns the total number of pieces across all hands
func (d Deal) Size() int {
	n := 0
	for _, h := range d {
		n += len(h)
	}
	return n
}

// IsFullDeck reports whether the deal is a permutation of the catalog
func (d Deal) IsFullDeck() bool {
	counts := make(map[Piece]int)
	for _, p := range Catalog() {
		counts[p]++
	}
	for _, hand := range d {
		for _, p := range hand {
			counts[p]--
		}
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return d.Size() == DeckSize
}
