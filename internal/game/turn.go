package game

// TurnPlay is one seat's submission within a turn
type TurnPlay struct {
	Player string   `json:"player"`
	Seat   int      `json:"seat"`
	Pieces []Piece  `json:"pieces"`
	Type   PlayType `json:"play_type"`
	Valid  bool     `json:"valid"`
}

// NewTurnPlay classifies a submission against the turn's opening play. Pass an empty
// turnType for the opener.
func NewTurnPlay(player string, seat int, pieces []Piece, turnType PlayType, requiredCount int) TurnPlay {
	tp := TurnPlay{
		Player: player,
		Seat:   seat,
		Pieces: pieces,
		Type:   ClassifyPlay(pieces),
	}
	tp.Valid = tp.Type != PlayInvalid
	if turnType != "" {
		tp.Valid = tp.Valid && tp.Type == turnType && len(pieces) == requiredCount
	}
	return tp
}

func (tp TurnPlay) play() Play {
	if !tp.Valid {
		return Play{Pieces: tp.Pieces, Type: PlayInvalid}
	}
	return Play{Pieces: tp.Pieces, Type: tp.Type}
}

// TurnResult is the outcome of a completed turn. Winner is empty when no play was valid.
type TurnResult struct {
	Turn       int        `json:"turn"`
	Plays      []TurnPlay `json:"plays"`
	Winner     string     `json:"winner,omitempty"`
	WinnerSeat int        `json:"winner_seat"`
	PieceCount int        `json:"piece_count"`
	Captured   int        `json:"piles_captured"`
}

// HasWinner reports whether any play won the turn
func (r TurnResult) HasWinner() bool {
	return r.WinnerSeat >= 0
}

// ResolveTurn picks the highest valid play in submission order. Equal plays go to the
// first submitted; the winner captures one pile per piece played.
func ResolveTurn(turn int, plays []TurnPlay) TurnResult {
	res := TurnResult{Turn: turn, Plays: plays, WinnerSeat: -1}
	if len(plays) == 0 {
		return res
	}
	res.PieceCount = len(plays[0].Pieces)

	best := -1
	for i, tp := range plays {
		if !tp.Valid {
			continue
		}
		if best < 0 || ComparePlays(tp.play(), plays[best].play()) == FirstWins {
			best = i
		}
	}
	if best < 0 {
		return res
	}

	res.Winner = plays[best].Player
	res.WinnerSeat = plays[best].Seat
	res.Captured = res.PieceCount
	return res
}
