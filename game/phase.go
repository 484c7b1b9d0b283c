package game

// TurnState counts the flips made by the side whose turn it is.
type TurnState int

const (
	NoCardUp TurnState = iota
	OneCardUp
	TwoCardUp
)

// String returns the protocol string for a TurnState.
func (ts TurnState) String() string {
	switch ts {
	case NoCardUp:
		return "no_card_up"
	case OneCardUp:
		return "one_card_up"
	case TwoCardUp:
		return "two_card_up"
	default:
		return "unknown"
	}
}

// Phase is the controller's guard state. Human flips are only accepted in
// Idle and AwaitingSecondFlip while the player owns the turn.
type Phase int

const (
	Idle Phase = iota
	AwaitingSecondFlip
	Evaluating
	OpponentMoving
	GameOver
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AwaitingSecondFlip:
		return "awaiting_second_flip"
	case Evaluating:
		return "evaluating"
	case OpponentMoving:
		return "opponent_moving"
	case GameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// acceptsPlayerFlip reports whether a human flip may be processed in this phase.
func (p Phase) acceptsPlayerFlip() bool {
	return p == Idle || p == AwaitingSecondFlip
}
