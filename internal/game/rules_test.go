package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPlay(t *testing.T) {
	tests := []struct {
		name   string
		pieces []Piece
		want   PlayType
	}{
		{"empty", nil, PlayInvalid},
		{"single", []Piece{bCannon}, PlaySingle},
		{"pair", []Piece{rChariot, rChariot}, PlayPair},
		{"pair of mixed colors", []Piece{rChariot, bChariot}, PlayInvalid},
		{"pair of different kinds", []Piece{rGeneral, rAdvisor}, PlayInvalid},
		{"three soldiers", []Piece{bSoldier, bSoldier, bSoldier}, PlayThreeOfAKind},
		{"four soldiers", []Piece{rSoldier, rSoldier, rSoldier, rSoldier}, PlayFourOfAKind},
		{"five soldiers", []Piece{rSoldier, rSoldier, rSoldier, rSoldier, rSoldier}, PlayFiveOfAKind},
		{"general straight", []Piece{rGeneral, rAdvisor, rElephant}, PlayStraight},
		{"chariot straight", []Piece{bChariot, bHorse, bCannon}, PlayStraight},
		{"straight across groups", []Piece{rGeneral, rHorse, rCannon}, PlayInvalid},
		{"straight of mixed colors", []Piece{rChariot, bHorse, rCannon}, PlayInvalid},
		{"extended straight", []Piece{rChariot, rChariot, rHorse, rCannon}, PlayExtendedStraight},
		{"extended straight of five", []Piece{rChariot, rChariot, rHorse, rHorse, rCannon}, PlayExtendedStraight5},
		{"double straight", []Piece{bChariot, bChariot, bHorse, bHorse, bCannon, bCannon}, PlayDoubleStraight},
		{"double straight of generals", []Piece{bAdvisor, bAdvisor, bElephant, bElephant, bGeneral, bGeneral}, PlayInvalid},
		{"four without a straight", []Piece{rChariot, rChariot, rHorse, rHorse}, PlayInvalid},
		{"too many pieces", []Piece{rSoldier, rSoldier, rSoldier, rSoldier, rSoldier, bSoldier, bSoldier}, PlayInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPlay(tt.pieces))
		})
	}
}

func TestComparePlays(t *testing.T) {
	tests := []struct {
		name string
		a, b []Piece
		want Outcome
	}{
		{"higher single", []Piece{rGeneral}, []Piece{bGeneral}, FirstWins},
		{"lower pair", []Piece{rChariot, rChariot}, []Piece{bElephant, bElephant}, SecondWins},
		{"different types", []Piece{rAdvisor, rAdvisor}, []Piece{bSoldier}, Tie},
		{"invalid loses", []Piece{rAdvisor, rElephant}, []Piece{bSoldier, bSoldier}, SecondWins},
		{"both invalid", []Piece{rAdvisor, rElephant}, []Piece{bAdvisor, bElephant}, Tie},
		{
			"equal totals fall back to strongest piece",
			[]Piece{bChariot, bChariot, bHorse, bCannon},
			[]Piece{rChariot, rHorse, rCannon, rCannon},
			SecondWins,
		},
		{"identical plays", []Piece{rSoldier}, []Piece{rSoldier}, Tie},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComparePlays(NewPlay(tt.a), NewPlay(tt.b)))
		})
	}
}

func TestValidatePlay(t *testing.T) {
	hand := strongDeal()[0]

	tests := []struct {
		name     string
		indices  []int
		required int
		opener   bool
		code     string
	}{
		{"opening pair", []int{2, 3}, 0, true, ""},
		{"opening straight", []int{2, 4, 6}, 0, true, ""},
		{"empty", nil, 0, true, "EMPTY_PLAY"},
		{"index out of range", []int{9}, 0, true, "PIECE_NOT_IN_HAND"},
		{"negative index", []int{-1}, 1, false, "PIECE_NOT_IN_HAND"},
		{"duplicate index", []int{1, 1}, 0, true, "DUPLICATE_PIECE"},
		{"opening invalid combination", []int{0, 1}, 0, true, "INVALID_COMBINATION"},
		{"opening too many pieces", []int{0, 1, 2, 3, 4, 5, 6}, 0, true, "BAD_PIECE_COUNT"},
		{"follower any pieces", []int{0, 7}, 2, false, ""},
		{"follower wrong count", []int{0}, 2, false, "BAD_PIECE_COUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pieces, err := ValidatePlay(hand, tt.indices, tt.required, tt.opener)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Len(t, pieces, len(tt.indices))
				return
			}
			var gerr *Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tt.code, gerr.Code)
			assert.Equal(t, CategoryValidation, gerr.Category)
		})
	}
}

func TestDeclarationSet(t *testing.T) {
	t.Run("last declarer cannot complete eight", func(t *testing.T) {
		s := NewDeclarationSet([]int{2, 3, 1}, true, 0)
		assert.Equal(t, []int{0, 1, 3, 4, 5, 6, 7, 8}, s.Values())
		assert.False(t, s.Contains(2))
	})
	t.Run("earlier declarers are unrestricted", func(t *testing.T) {
		s := NewDeclarationSet([]int{2, 3}, false, 0)
		assert.Len(t, s.Values(), MaxDeclaration+1)
	})
	t.Run("prior total above eight", func(t *testing.T) {
		s := NewDeclarationSet([]int{5, 4, 0}, true, 0)
		assert.Len(t, s.Values(), MaxDeclaration+1)
	})
	t.Run("zero streak", func(t *testing.T) {
		s := NewDeclarationSet(nil, false, ZeroStreakLimit)
		assert.False(t, s.Contains(0))
		assert.True(t, s.Contains(1))
	})
	t.Run("both restrictions", func(t *testing.T) {
		s := NewDeclarationSet([]int{4, 3, 0}, true, ZeroStreakLimit)
		assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8}, s.Values())
	})
	t.Run("out of range", func(t *testing.T) {
		s := NewDeclarationSet(nil, false, 0)
		assert.False(t, s.Contains(-1))
		assert.False(t, s.Contains(9))
	})
}

func TestValidateDeclaration(t *testing.T) {
	tests := []struct {
		name   string
		value  int
		prior  []int
		isLast bool
		streak int
		code   string
	}{
		{"first declarer", 3, nil, false, 0, ""},
		{"too high", 9, nil, false, 0, "DECLARATION_OUT_OF_RANGE"},
		{"negative", -1, nil, false, 0, "DECLARATION_OUT_OF_RANGE"},
		{"completes eight", 2, []int{2, 3, 1}, true, 0, "TOTAL_EIGHT"},
		{"last with other value", 3, []int{2, 3, 1}, true, 0, ""},
		{"third zero", 0, nil, false, 2, "ZERO_STREAK"},
		{"second zero", 0, nil, false, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeclaration(tt.value, tt.prior, tt.isLast, tt.streak)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var gerr *Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tt.code, gerr.Code)
		})
	}
}

func TestEvaluateHand(t *testing.T) {
	weak := weakDeal()

	hs := EvaluateHand(weak[1], DefaultWeakHandRule)
	assert.Equal(t, 8, hs.Strongest)
	assert.Equal(t, 40, hs.Total)
	assert.True(t, hs.Weak)

	assert.True(t, IsWeakHand(weak[2], DefaultWeakHandRule), "a black elephant is worth exactly 9")
	assert.False(t, IsWeakHand(weak[0], DefaultWeakHandRule))

	byTotal := WeakHandRule{Mode: WeakByTotal, Threshold: 40}
	assert.True(t, IsWeakHand(weak[1], byTotal))
	byTotal.Threshold = 39
	assert.False(t, IsWeakHand(weak[1], byTotal))

	assert.False(t, IsWeakHand(nil, DefaultWeakHandRule), "an empty hand is never offered a redeal")
}
