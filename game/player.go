package game

// Side identifies one of the two participants.
type Side int

const (
	Player Side = iota
	Opponent
)

// String returns the protocol string for a Side.
func (s Side) String() string {
	switch s {
	case Player:
		return "player"
	case Opponent:
		return "opponent"
	default:
		return "unknown"
	}
}

// Other returns the side that plays next.
func (s Side) Other() Side {
	if s == Player {
		return Opponent
	}
	return Player
}

// Outcome is the final result of a game. Ties go to the player.
type Outcome int

const (
	PlayerWins Outcome = iota
	OpponentWins
)

// String returns the result label shown to the player.
func (o Outcome) String() string {
	switch o {
	case PlayerWins:
		return "player wins"
	case OpponentWins:
		return "opponent wins"
	default:
		return "unknown"
	}
}

// DecideOutcome returns PlayerWins when the player scored at least as many pairs.
func DecideOutcome(playerScore, opponentScore int) Outcome {
	if playerScore >= opponentScore {
		return PlayerWins
	}
	return OpponentWins
}
