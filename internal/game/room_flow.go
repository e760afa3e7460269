package game

import (
	"time"

	"go.uber.org/zap"
)

// maxRoundResets consecutive aborted rounds close the room
const maxRoundResets = 3

// startRoundLocked resets per-round state, deals, and runs the redeal check
func (r *Room) startRoundLocked() {
	r.round++
	r.multiplier = 1
	r.turn = 0
	r.requiredCount = 0
	r.turnType = ""
	r.turnPlays = nil
	r.redealQueue = nil
	r.lastTurn = nil

	prevWinner := r.lastTurnWinner
	r.roundStartWinner = prevWinner
	r.roundStartSeat = r.starter
	r.lastTurnWinner = -1
	for i, p := range r.seats {
		r.roundStartScores[i] = p.Score
		r.roundStartStreaks[i] = p.ZeroDeclareStreak
		p.resetRound()
	}

	r.setPhaseLocked(PhasePreparation)
	if !r.dealLocked() {
		return
	}

	switch {
	case r.round == 1:
		r.starter = r.redGeneralHolderLocked()
	case prevWinner >= 0:
		r.starter = prevWinner
	}

	r.emitLocked(EventRoundStarted, RoundStartedPayload{Round: r.round, Starter: r.seats[r.starter].Name, Multiplier: r.multiplier})
	r.log.Info("round started", zap.Int("round", r.round), zap.String("starter", r.seats[r.starter].Name))
	r.redealCheckLocked()
}

// dealLocked hands out a fresh deal. It returns false when the round was aborted.
func (r *Room) dealLocked() bool {
	deal := r.opts.Dealer.Deal(r.rng)
	if !deal.IsFullDeck() {
		r.abortRoundLocked(invariantError("deal of %d pieces is not the full deck", deal.Size()))
		return false
	}
	for seat, p := range r.seats {
		p.Hand = deal[seat]
		strength := EvaluateHand(p.Hand, r.opts.WeakHand)
		r.emitLocked(EventHandDealt, HandDealtPayload{Round: r.round, Hand: append([]Piece(nil), p.Hand...), Strength: strength}, p.Name)
	}
	return true
}

func (r *Room) redGeneralHolderLocked() int {
	for seat, p := range r.seats {
		for _, piece := range p.Hand {
			if piece.Kind == General && piece.Color == Red {
				return seat
			}
		}
	}
	return 0
}

// redealCheckLocked queues weak-handed seats starting from the starter
func (r *Room) redealCheckLocked() {
	r.redealQueue = r.redealQueue[:0]
	for i := 0; i < SeatCount; i++ {
		seat := (r.starter + i) % SeatCount
		if EvaluateHand(r.seats[seat].Hand, r.opts.WeakHand).Weak {
			r.redealQueue = append(r.redealQueue, seat)
		}
	}
	if len(r.redealQueue) == 0 {
		r.beginDeclarationLocked()
		return
	}
	r.setPhaseLocked(PhaseRedealCheck)
	r.promptLocked(r.redealQueue[0])
}

func (r *Room) redealLocked(p *Player, accept bool) {
	r.cancelTimerLocked(p.Seat)
	if accept {
		r.multiplier++
		r.starter = p.Seat
	}
	r.emitLocked(EventRedealDecided, RedealDecidedPayload{
		Player:     p.Name,
		Accepted:   accept,
		Multiplier: r.multiplier,
		Starter:    r.seats[r.starter].Name,
	})
	r.log.Info("redeal decided", zap.String("player", p.Name), zap.Bool("accepted", accept), zap.Int("multiplier", r.multiplier))

	if accept {
		r.current = -1
		r.redealQueue = nil
		for _, s := range r.seats {
			s.Hand = nil
		}
		r.setPhaseLocked(PhasePreparation)
		if r.dealLocked() {
			r.redealCheckLocked()
		}
		return
	}

	r.redealQueue = r.redealQueue[1:]
	if len(r.redealQueue) == 0 {
		r.beginDeclarationLocked()
		return
	}
	r.promptLocked(r.redealQueue[0])
}

func (r *Room) beginDeclarationLocked() {
	r.redealQueue = nil
	r.setPhaseLocked(PhaseDeclaration)
	r.promptLocked(r.starter)
}

// declarationsLocked returns the values declared so far this round in declaration order
func (r *Room) declarationsLocked() []int {
	prior := make([]int, 0, SeatCount)
	for i := 0; i < SeatCount; i++ {
		p := r.seats[(r.starter+i)%SeatCount]
		if p.HasDeclared() {
			prior = append(prior, *p.Declared)
		}
	}
	return prior
}

func (r *Room) declarationOptionsLocked(p *Player) []int {
	prior := r.declarationsLocked()
	return NewDeclarationSet(prior, len(prior) == SeatCount-1, p.ZeroDeclareStreak).Values()
}

func (r *Room) declareLocked(p *Player, value int) error {
	prior := r.declarationsLocked()
	if err := ValidateDeclaration(value, prior, len(prior) == SeatCount-1, p.ZeroDeclareStreak); err != nil {
		return err
	}
	r.cancelTimerLocked(p.Seat)

	v := value
	p.Declared = &v
	total := value
	for _, d := range prior {
		total += d
	}
	r.emitLocked(EventDeclared, DeclaredPayload{Player: p.Name, Value: value, Total: total})

	if len(prior)+1 < SeatCount {
		r.promptLocked(nextSeat(p.Seat))
		return nil
	}
	if total == ForbiddenTotal {
		r.abortRoundLocked(invariantError("declarations total %d after validation", total))
		return nil
	}
	r.beginTurnLocked(r.starter)
	return nil
}

func (r *Room) beginTurnLocked(opener int) {
	n := len(r.seats[opener].Hand)
	for _, p := range r.seats {
		if len(p.Hand) != n {
			r.abortRoundLocked(invariantError("hand sizes diverged: %s holds %d, %s holds %d", r.seats[opener].Name, n, p.Name, len(p.Hand)))
			return
		}
	}

	r.turn++
	r.requiredCount = 0
	r.turnType = ""
	r.turnOpener = opener
	r.turnPlays = nil
	r.setPhaseLocked(PhaseTurnPlay)
	r.emitLocked(EventTurnStarted, TurnStartedPayload{Turn: r.turn, Starter: r.seats[opener].Name})
	r.promptLocked(opener)
}

func (r *Room) playLocked(p *Player, indices []int) error {
	isOpener := len(r.turnPlays) == 0
	pieces, err := ValidatePlay(p.Hand, indices, r.requiredCount, isOpener)
	if err != nil {
		return err
	}
	r.cancelTimerLocked(p.Seat)

	var tp TurnPlay
	if isOpener {
		tp = NewTurnPlay(p.Name, p.Seat, pieces, "", 0)
		r.requiredCount = len(pieces)
		r.turnType = tp.Type
	} else {
		tp = NewTurnPlay(p.Name, p.Seat, pieces, r.turnType, r.requiredCount)
	}
	p.takePieces(indices)
	r.turnPlays = append(r.turnPlays, tp)
	r.emitLocked(EventPlayed, PlayedPayload{
		Player:     p.Name,
		Turn:       r.turn,
		Pieces:     pieces,
		PlayType:   tp.Type,
		PieceCount: len(pieces),
	})

	if len(r.turnPlays) < SeatCount {
		r.promptLocked(nextSeat(p.Seat))
		return nil
	}
	r.resolveTurnLocked()
	return nil
}

func (r *Room) resolveTurnLocked() {
	r.current = -1
	r.setPhaseLocked(PhaseTurnResolution)

	res := ResolveTurn(r.turn, r.turnPlays)
	next := r.turnOpener
	if res.HasWinner() {
		r.seats[res.WinnerSeat].CapturedPiles += res.Captured
		r.lastTurnWinner = res.WinnerSeat
		next = res.WinnerSeat
	}
	r.lastTurn = &res

	captured := make(map[string]int, SeatCount)
	for _, p := range r.seats {
		captured[p.Name] = p.CapturedPiles
	}
	r.emitLocked(EventTurnResolved, TurnResolvedPayload{Result: res, Captured: captured})
	r.log.Debug("turn resolved", zap.Int("turn", r.turn), zap.String("winner", res.Winner), zap.Int("captured", res.Captured))

	for _, p := range r.seats {
		if len(p.Hand) > 0 {
			r.beginTurnLocked(next)
			return
		}
	}
	r.scoreRoundLocked()
}

func (r *Room) scoreRoundLocked() {
	r.setPhaseLocked(PhaseScoring)

	lines := ScoreRound(r.seats[:], r.multiplier)
	for i, line := range lines {
		p := r.seats[i]
		p.Score += line.Delta
		if line.Declared == 0 {
			p.ZeroDeclareStreak++
		} else {
			p.ZeroDeclareStreak = 0
		}
	}
	r.history = append(r.history, lines)
	r.resets = 0
	r.emitLocked(EventRoundScored, RoundScoredPayload{Round: r.round, Multiplier: r.multiplier, Scores: lines})
	r.log.Info("round scored", zap.Int("round", r.round), zap.Int("multiplier", r.multiplier))

	if GameEnded(r.seats[:], r.round, r.opts.WinScore, r.opts.MaxRounds) {
		r.gameOverLocked()
		return
	}
	r.startRoundLocked()
}

func (r *Room) gameOverLocked() {
	r.cancelAllTimersLocked()
	r.current = -1
	r.setPhaseLocked(PhaseGameOver)
	r.standings = FinalStandings(r.seats[:])

	winner := ""
	if len(r.standings) > 0 {
		winner = r.standings[0].Player
	}
	r.emitLocked(EventGameEnded, GameEndedPayload{Rounds: r.round, Winner: winner, Standings: r.standings})
	r.log.Info("game ended", zap.Int("rounds", r.round), zap.String("winner", winner))

	if r.opts.OnGameOver != nil {
		r.opts.OnGameOver(GameResult{
			RoomID:     r.id,
			Rounds:     r.round,
			Winner:     winner,
			Standings:  append([]Standing(nil), r.standings...),
			History:    append([][]RoundScore(nil), r.history...),
			StartedAt:  r.startedAt,
			FinishedAt: time.Now(),
		})
	}
}

// abortRoundLocked discards the current round after an internal inconsistency and
// replays it from a fresh deal with the scores it started with
func (r *Room) abortRoundLocked(err *Error) {
	r.log.Error("round aborted", zap.Int("round", r.round), zap.String("phase", string(r.phase)), zap.Error(err))
	r.cancelAllTimersLocked()
	r.current = -1
	for i, p := range r.seats {
		p.Score = r.roundStartScores[i]
		p.ZeroDeclareStreak = r.roundStartStreaks[i]
		p.resetRound()
	}
	r.emitLocked(EventRoundReset, RoundResetPayload{Round: r.round, Reason: err.Message})

	r.resets++
	if r.resets >= maxRoundResets {
		r.log.Error("closing room after repeated round resets", zap.Int("resets", r.resets))
		r.closed = true
		return
	}
	// the replay picks its starter from the same inputs as the aborted round
	r.lastTurnWinner = r.roundStartWinner
	r.starter = r.roundStartSeat
	r.round--
	r.startRoundLocked()
}

// promptLocked hands the action to a seat and schedules the bot when it drives that seat
func (r *Room) promptLocked(seat int) {
	r.current = seat
	p := r.seats[seat]

	switch r.phase {
	case PhaseRedealCheck:
		r.emitLocked(EventRedealOffered, RedealOfferedPayload{
			Player:     p.Name,
			Strength:   EvaluateHand(p.Hand, r.opts.WeakHand),
			Multiplier: r.multiplier,
		}, p.Name)
	case PhaseDeclaration:
		r.emitLocked(EventDeclarationRequested, DeclarationRequestedPayload{Player: p.Name, Options: r.declarationOptionsLocked(p)}, p.Name)
	case PhaseTurnPlay:
		r.emitLocked(EventPlayRequested, PlayRequestedPayload{
			Player:        p.Name,
			Turn:          r.turn,
			RequiredCount: r.requiredCount,
			TurnType:      r.turnType,
		}, p.Name)
	default:
		return
	}

	if p.BotDriven() {
		r.scheduleBotLocked(seat)
	}
}

func (r *Room) botDelayLocked() time.Duration {
	d := r.opts.BotMinDelay
	if spread := r.opts.BotMaxDelay - r.opts.BotMinDelay; spread > 0 {
		d += time.Duration(r.rng.Int63n(int64(spread)))
	}
	return d
}

// scheduleBotLocked arms a cancellable decision timer for a seat. Each timer carries a
// generation so a timer that fires after being replaced or cancelled does nothing.
func (r *Room) scheduleBotLocked(seat int) {
	if r.closed {
		return
	}
	r.cancelTimerLocked(seat)
	r.timerGen++
	gen := r.timerGen
	t := r.opts.Scheduler.AfterFunc(r.botDelayLocked(), func() {
		r.runBot(seat, gen)
	})
	r.timers[seat] = &botTimer{gen: gen, timer: t}
}

func (r *Room) cancelTimerLocked(seat int) {
	if bt, ok := r.timers[seat]; ok {
		bt.timer.Stop()
		delete(r.timers, seat)
	}
}

func (r *Room) cancelAllTimersLocked() {
	for seat := range r.timers {
		r.cancelTimerLocked(seat)
	}
}

func (r *Room) runBot(seat int, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bt, ok := r.timers[seat]
	if !ok || bt.gen != gen {
		return
	}
	delete(r.timers, seat)

	p := r.seats[seat]
	if r.closed || r.current != seat || p == nil || !p.BotDriven() {
		return
	}

	hand := append([]Piece(nil), p.Hand...)
	ctx := r.botContextLocked(p)
	var err error
	switch r.phase {
	case PhaseRedealCheck:
		r.redealLocked(p, r.opts.Bot.DecideRedeal(hand))
	case PhaseDeclaration:
		if err = r.declareLocked(p, r.opts.Bot.ChooseDeclaration(hand, ctx)); err != nil {
			r.log.Warn("bot declaration rejected, using first option", zap.String("player", p.Name), zap.Error(err))
			err = r.declareLocked(p, ctx.DeclarationOptions[0])
		}
	case PhaseTurnPlay:
		if err = r.playLocked(p, r.opts.Bot.ChoosePlay(hand, ctx)); err != nil {
			r.log.Warn("bot play rejected, playing lowest pieces", zap.String("player", p.Name), zap.Error(err))
			n := ctx.RequiredCount
			if ctx.IsOpener {
				n = 1
			}
			err = r.playLocked(p, lowestIndices(hand, n))
		}
	default:
		return
	}
	if err != nil {
		r.log.Error("bot action failed", zap.String("player", p.Name), zap.String("phase", string(r.phase)), zap.Error(err))
		return
	}
	r.commitLocked()
}

func (r *Room) botContextLocked(p *Player) BotContext {
	ctx := BotContext{
		Round:         r.round,
		Turn:          r.turn,
		Seat:          p.Seat,
		Declared:      p.DeclaredValue(),
		Captured:      p.CapturedPiles,
		IsOpener:      len(r.turnPlays) == 0,
		RequiredCount: r.requiredCount,
		TurnType:      r.turnType,
		Plays:         append([]TurnPlay(nil), r.turnPlays...),
	}
	if r.phase == PhaseDeclaration {
		ctx.DeclarationOptions = r.declarationOptionsLocked(p)
	}
	return ctx
}
