package game

import "sort"

// Scoring constants
const (
	ExactMatchBonus  = 5
	PerfectZeroBonus = 3
)

// RoundScore is one player's scoring line for a finished round
type RoundScore struct {
	Player     string `json:"player"`
	Seat       int    `json:"seat"`
	Declared   int    `json:"declared"`
	Captured   int    `json:"captured"`
	Base       int    `json:"base"`
	Multiplier int    `json:"multiplier"`
	Delta      int    `json:"delta"`
	Total      int    `json:"total"`
}

// BaseScore scores a declaration against the piles actually captured
func BaseScore(declared, captured int) int {
	switch {
	case declared == 0 && captured == 0:
		return PerfectZeroBonus
	case declared == 0:
		return -captured
	case declared == captured:
		return declared + ExactMatchBonus
	case declared > captured:
		return captured - declared
	default:
		return declared - captured
	}
}

// RoundDelta applies the redeal multiplier to the base score
func RoundDelta(declared, captured, multiplier int) int {
	if multiplier < 1 {
		multiplier = 1
	}
	return BaseScore(declared, captured) * multiplier
}

// ScoreRound computes a scoring line per player. It does not mutate the players.
func ScoreRound(players []*Player, multiplier int) []RoundScore {
	if multiplier < 1 {
		multiplier = 1
	}
	lines := make([]RoundScore, 0, len(players))
	for _, p := range players {
		d := p.DeclaredValue()
		base := BaseScore(d, p.CapturedPiles)
		lines = append(lines, RoundScore{
			Player:     p.Name,
			Seat:       p.Seat,
			Declared:   d,
			Captured:   p.CapturedPiles,
			Base:       base,
			Multiplier: multiplier,
			Delta:      base * multiplier,
			Total:      p.Score + base*multiplier,
		})
	}
	return lines
}

// Standing is a player's final placement
type Standing struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Seat   int    `json:"seat"`
	Score  int    `json:"score"`
	IsBot  bool   `json:"is_bot"`
}

// FinalStandings orders players by score, highest first, stable by seat. Equal scores
// share a rank.
func FinalStandings(players []*Player) []Standing {
	ordered := make([]*Player, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].Seat < ordered[j].Seat
	})

	standings := make([]Standing, len(ordered))
	for i, p := range ordered {
		rank := i + 1
		if i > 0 && p.Score == ordered[i-1].Score {
			rank = standings[i-1].Rank
		}
		standings[i] = Standing{Rank: rank, Player: p.Name, Seat: p.Seat, Score: p.Score, IsBot: p.IsBot}
	}
	return standings
}

// GameEnded reports whether a score reached winScore or the round limit was hit
func GameEnded(players []*Player, round, winScore, maxRounds int) bool {
	if maxRounds > 0 && round >= maxRounds {
		return true
	}
	for _, p := range players {
		if p.Score >= winScore {
			return true
		}
	}
	return false
}
