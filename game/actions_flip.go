package game

// RequestFlip handles a human "card selected" event. It returns false and
// changes nothing when it is not the player's turn, an evaluation or the
// opponent's move is pending, or the card is out of range, face up or matched.
func (c *Controller) RequestFlip(index int) bool {
	if c.owner != Player || !c.phase.acceptsPlayerFlip() {
		c.logger.Debug("flip ignored", "card", index, "phase", c.phase.String(), "owner", c.owner.String())
		return false
	}
	card := c.deck.Card(index)
	if card == nil || card.Disabled || card.FaceUp {
		c.logger.Debug("flip ignored", "card", index, "reason", "unavailable")
		return false
	}
	c.flip(card)
	return true
}

// flip turns a card face up for whoever owns the turn.
func (c *Controller) flip(card *Card) {
	if c.memory.Observe(card) {
		c.logger.Debug("picture observed", "card", card.Index, "picture", card.PictureID)
	}
	card.FaceUp = true
	if r := c.hooks.Renderer; r != nil {
		r.Reveal(*card)
	}
	c.advanceState(card)
}

func (c *Controller) advanceState(card *Card) {
	switch c.turnState {
	case NoCardUp:
		c.first = card
		c.turnState = OneCardUp
		if c.owner == Player {
			c.phase = AwaitingSecondFlip
		}
	case OneCardUp:
		c.second = card
		c.turnState = TwoCardUp
		c.phase = Evaluating
		c.sched.After(c.revealDelay, c.evaluateTwoCards)
	case TwoCardUp:
		// Further flips wait for the evaluation.
	}
}

// evaluateTwoCards resolves the face-up pair, scores it, hands the turn over
// and either starts the opponent's move or ends the game.
func (c *Controller) evaluateTwoCards() {
	if c.phase != Evaluating || c.first == nil || c.second == nil {
		c.reportInvariant("evaluation without two cards up", -1)
		return
	}
	a, b := c.first, c.second
	matched := a.PictureID == b.PictureID
	scorer := c.owner

	if matched {
		for _, card := range []*Card{a, b} {
			if err := c.memory.Forget(card); err != nil {
				c.invariantErr++
				c.logger.Error("memory removal skipped", "err", err)
			}
			if err := c.deck.Remove(card.Index); err != nil {
				c.invariantErr++
				c.logger.Error("enabled pool removal skipped", "err", err)
			}
			if r := c.hooks.Renderer; r != nil {
				r.Disable(*card)
			}
		}
		c.scores[scorer]++
		c.pairsRemaining--
	} else {
		for _, card := range []*Card{a, b} {
			card.FaceUp = false
			if r := c.hooks.Renderer; r != nil {
				r.Hide(*card)
			}
		}
	}

	c.first, c.second = nil, nil
	c.turnState = NoCardUp
	c.owner = c.owner.Other()
	c.round++

	c.hooks.Telemetry.RecordTurn(TurnRecord{
		MatchID:        c.matchID,
		Round:          c.round,
		Side:           scorer,
		First:          a.Index,
		Second:         b.Index,
		PictureID:      a.PictureID,
		Matched:        matched,
		PlayerScore:    c.scores[Player],
		OpponentScore:  c.scores[Opponent],
		PairsRemaining: c.pairsRemaining,
	})
	c.showScores()

	if c.pairsRemaining == 0 {
		c.finish()
		return
	}

	if d := c.hooks.Display; d != nil {
		d.ShowTurn(c.owner)
	}
	if c.owner == Opponent {
		c.beginOpponentMove()
		return
	}
	c.phase = Idle
}

// finish declares the outcome and signals the session shell after the game-over delay.
func (c *Controller) finish() {
	c.phase = GameOver
	c.outcome = DecideOutcome(c.scores[Player], c.scores[Opponent])
	if d := c.hooks.Display; d != nil {
		d.ShowResult(c.outcome)
	}
	c.hooks.Telemetry.RecordResult(ResultRecord{
		MatchID:       c.matchID,
		PlayerScore:   c.scores[Player],
		OpponentScore: c.scores[Opponent],
		Outcome:       c.outcome,
		Rounds:        c.round,
	})
	c.sched.After(c.gameOverDelay, c.signalEnd)
}

func (c *Controller) signalEnd() {
	if c.ended {
		return
	}
	c.ended = true
	shell := c.hooks.Shell
	if shell == nil {
		return
	}
	if c.outcome == PlayerWins {
		shell.OnGameWon()
	} else {
		shell.OnGameLost()
	}
}
