package game

// Phase represents the current state of a room
type Phase string

const (
	PhaseWaiting        Phase = "WAITING"
	PhasePreparation    Phase = "PREPARATION"
	PhaseRedealCheck    Phase = "REDEAL_CHECK"
	PhaseDeclaration    Phase = "DECLARATION"
	PhaseTurnPlay       Phase = "TURN_PLAY"
	PhaseTurnResolution Phase = "TURN_RESOLUTION"
	PhaseScoring        Phase = "SCORING"
	PhaseGameOver       Phase = "GAME_OVER"
)

// InProgress reports whether a game is running in this phase
func (p Phase) InProgress() bool {
	return p != PhaseWaiting && p != PhaseGameOver
}
