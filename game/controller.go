package game

import (
	"fmt"
	"log/slog"
	"time"

	"pairs-server/ai"
	"pairs-server/clock"
	"pairs-server/matcherrors"
	"pairs-server/random"
)

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	MatchID       string
	Deck          *Deck // nil: shuffled with Random
	Random        random.Random
	Scheduler     clock.Scheduler
	RevealDelay   time.Duration
	GameOverDelay time.Duration
	Pool          ai.Pool
	Hooks         Hooks
	Logger        *slog.Logger
}

// Default delays, matching config.Defaults.
const (
	DefaultRevealDelay   = 2 * time.Second
	DefaultGameOverDelay = 1500 * time.Millisecond
)

// Controller owns the deck, turn order, scores and the reveal-evaluation state
// machine for one game against the memory opponent. It is not safe for
// concurrent use: Game serialises every call onto one goroutine.
type Controller struct {
	matchID string
	deck    *Deck
	memory  *Memory
	rng     random.Random
	sched   clock.Scheduler
	pool    ai.Pool
	hooks   Hooks
	logger  *slog.Logger

	revealDelay   time.Duration
	gameOverDelay time.Duration

	phase     Phase
	turnState TurnState
	owner     Side
	first     *Card
	second    *Card

	scores         [2]int
	pairsRemaining int
	round          int

	outcome      Outcome
	ended        bool // shell signalled
	err          error
	invariantErr int
}

// NewController sets up a game with the player to move first.
// Call Start to publish the opening state to the display.
func NewController(opts Options) *Controller {
	rng := opts.Random
	if rng == nil {
		rng = random.New()
	}
	deck := opts.Deck
	if deck == nil {
		deck = NewDeck(rng)
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = clock.NewManual()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("tag", "game", "match", opts.MatchID)
	reveal := opts.RevealDelay
	if reveal <= 0 {
		reveal = DefaultRevealDelay
	}
	over := opts.GameOverDelay
	if over <= 0 {
		over = DefaultGameOverDelay
	}
	hooks := opts.Hooks
	if hooks.Telemetry == nil {
		hooks.Telemetry = logTelemetry{logger: logger}
	} else {
		hooks.Telemetry = MultiSink{logTelemetry{logger: logger}, hooks.Telemetry}
	}

	return &Controller{
		matchID:        opts.MatchID,
		deck:           deck,
		memory:         NewMemory(deck),
		rng:            rng,
		sched:          sched,
		pool:           opts.Pool,
		hooks:          hooks,
		logger:         logger,
		revealDelay:    reveal,
		gameOverDelay:  over,
		phase:          Idle,
		turnState:      NoCardUp,
		owner:          Player,
		pairsRemaining: NumPairs,
	}
}

// Start publishes the opening turn label and scores.
func (c *Controller) Start() {
	c.showScores()
	if d := c.hooks.Display; d != nil {
		d.ShowTurn(c.owner)
	}
	c.logger.Info("game started", "pool", c.pool.String())
}

// beginOpponentMove picks both opponent cards up front and plays them on the
// reveal delay. Memory is only updated as each flip actually happens.
func (c *Controller) beginOpponentMove() {
	c.phase = OpponentMoving
	move, err := ai.SelectOpponentMove(c.memory.Snapshot(c.deck), c.pairsRemaining, c.pool, c.rng)
	if err != nil {
		c.halt(err)
		return
	}
	c.logger.Debug("opponent chose cards", "first", move.First, "second", move.Second, "reason", move.Reason)

	c.sched.After(c.revealDelay, func() {
		c.opponentFlip(move.First)
		if c.phase != OpponentMoving {
			return
		}
		c.sched.After(c.revealDelay, func() {
			c.opponentFlip(move.Second)
		})
	})
}

func (c *Controller) opponentFlip(index int) {
	if c.phase != OpponentMoving {
		return
	}
	card := c.deck.Card(index)
	if card == nil || card.Disabled || card.FaceUp {
		// The turn cannot complete without this card, so the game stops.
		c.reportInvariant("opponent flip on unavailable card", index)
		c.halt(fmt.Errorf("%w: opponent flip on unavailable card %d", matcherrors.ErrInvariant, index))
		return
	}
	c.flip(card)
}

// halt stops the game after an unrecoverable internal error.
func (c *Controller) halt(err error) {
	c.err = err
	c.phase = GameOver
	c.logger.Error("game halted", "err", err)
}

func (c *Controller) reportInvariant(msg string, index int) {
	c.invariantErr++
	c.logger.Error(msg, "card", index, "phase", c.phase.String())
}

func (c *Controller) showScores() {
	if d := c.hooks.Display; d != nil {
		d.ShowScores(c.scores[Player], c.scores[Opponent])
	}
}

// MatchID returns the identifier the controller logs and records under.
func (c *Controller) MatchID() string { return c.matchID }

// Phase returns the current guard state.
func (c *Controller) Phase() Phase { return c.phase }

// TurnState returns how many cards are up in the current turn.
func (c *Controller) TurnState() TurnState { return c.turnState }

// Owner returns the side whose turn it is.
func (c *Controller) Owner() Side { return c.owner }

// Scores returns the player's and the opponent's matched pairs.
func (c *Controller) Scores() (player, opponent int) {
	return c.scores[Player], c.scores[Opponent]
}

// PairsRemaining returns how many pairs are still on the board.
func (c *Controller) PairsRemaining() int { return c.pairsRemaining }

// Round returns how many turns have been evaluated.
func (c *Controller) Round() int { return c.round }

// Deck returns the controller's deck. Callers must not mutate it.
func (c *Controller) Deck() *Deck { return c.deck }

// Memory returns the opponent's memory partition. Callers must not mutate it.
func (c *Controller) Memory() *Memory { return c.memory }

// Outcome returns the result once all pairs are matched.
func (c *Controller) Outcome() (Outcome, bool) {
	if c.phase != GameOver || c.err != nil {
		return 0, false
	}
	return c.outcome, true
}

// Ended reports whether the game is over and nothing further is pending:
// the shell has been signalled, or the game was halted.
func (c *Controller) Ended() bool {
	return c.ended || c.err != nil
}

// Err returns the error that halted the game, if any.
func (c *Controller) Err() error { return c.err }

// InvariantViolations returns how many consistency errors were reported and skipped.
func (c *Controller) InvariantViolations() int { return c.invariantErr }
