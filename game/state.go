package game

// CardView is the client-facing representation of a card.
// PictureID is only included when the card is face up or out of play.
type CardView struct {
	Index     int  `json:"index"`
	PictureID *int `json:"pictureId,omitempty"`
	FaceUp    bool `json:"faceUp"`
	Disabled  bool `json:"disabled"`
}

// StateMsg is the full game state sent to the player's client.
type StateMsg struct {
	Type           string     `json:"type"`
	GameID         string     `json:"gameId"`
	Cards          []CardView `json:"cards"`
	Turn           string     `json:"turn"`
	Phase          string     `json:"phase"`
	TurnState      string     `json:"turnState"`
	PlayerScore    int        `json:"playerScore"`
	OpponentScore  int        `json:"opponentScore"`
	PairsRemaining int        `json:"pairsRemaining"`
	Result         string     `json:"result,omitempty"`
}

// BuildCardViews constructs the client-facing card list.
// Face-down cards do not expose their picture.
func BuildCardViews(deck *Deck) []CardView {
	views := make([]CardView, len(deck.Cards))
	for i, card := range deck.Cards {
		cv := CardView{
			Index:    card.Index,
			FaceUp:   card.FaceUp,
			Disabled: card.Disabled,
		}
		if card.FaceUp || card.Disabled {
			pic := card.PictureID
			cv.PictureID = &pic
		}
		views[i] = cv
	}
	return views
}

// State returns the game state view for the player.
func (c *Controller) State() StateMsg {
	msg := StateMsg{
		Type:           "game_state",
		GameID:         c.matchID,
		Cards:          BuildCardViews(c.deck),
		Turn:           c.owner.String(),
		Phase:          c.phase.String(),
		TurnState:      c.turnState.String(),
		PlayerScore:    c.scores[Player],
		OpponentScore:  c.scores[Opponent],
		PairsRemaining: c.pairsRemaining,
	}
	if o, ok := c.Outcome(); ok {
		msg.Result = o.String()
	}
	return msg
}
