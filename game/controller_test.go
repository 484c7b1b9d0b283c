package game

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pairs-server/ai"
	"pairs-server/clock"
	"pairs-server/matcherrors"
	"pairs-server/mocks"
	"pairs-server/random"
)

// scenarioLayout pairs card i with card i+2 inside each block of four.
var scenarioLayout = []int{1, 2, 1, 2, 3, 4, 3, 4, 5, 6, 5, 6, 7, 8, 7, 8}

// recorder captures every hook call in order.
type recorder struct {
	events  []string
	won     int
	lost    int
	turns   []TurnRecord
	results []ResultRecord
}

func (r *recorder) Reveal(c Card)  { r.events = append(r.events, fmt.Sprintf("reveal:%d", c.Index)) }
func (r *recorder) Hide(c Card)    { r.events = append(r.events, fmt.Sprintf("hide:%d", c.Index)) }
func (r *recorder) Disable(c Card) { r.events = append(r.events, fmt.Sprintf("disable:%d", c.Index)) }

func (r *recorder) ShowTurn(owner Side) {
	r.events = append(r.events, "turn:"+owner.String())
}

func (r *recorder) ShowScores(player, opponent int) {
	r.events = append(r.events, fmt.Sprintf("scores:%d-%d", player, opponent))
}

func (r *recorder) ShowResult(o Outcome) {
	r.events = append(r.events, "result:"+o.String())
}

func (r *recorder) OnGameWon()  { r.won++ }
func (r *recorder) OnGameLost() { r.lost++ }

func (r *recorder) RecordTurn(rec TurnRecord)     { r.turns = append(r.turns, rec) }
func (r *recorder) RecordResult(rec ResultRecord) { r.results = append(r.results, rec) }

func (r *recorder) hooks() Hooks {
	return Hooks{Renderer: r, Display: r, Shell: r, Telemetry: r}
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

type ControllerSuite struct {
	suite.Suite
	rng   *mocks.MockRandom
	sched *clock.Manual
	rec   *recorder
	ctrl  *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	deck, err := NewDeckFromPictures(scenarioLayout)
	s.Require().NoError(err)
	s.rng = mocks.NewMockRandom()
	s.sched = clock.NewManual()
	s.rec = &recorder{}
	s.ctrl = NewController(Options{
		MatchID:   "test-match",
		Deck:      deck,
		Random:    s.rng,
		Scheduler: s.sched,
		Hooks:     s.rec.hooks(),
	})
	s.ctrl.Start()
}

func (s *ControllerSuite) TestStartShowsPlayerTurnAndZeroScores() {
	s.Equal([]string{"scores:0-0", "turn:player"}, s.rec.events)
	s.Equal(Idle, s.ctrl.Phase())
	s.Equal(Player, s.ctrl.Owner())
	s.Equal(NumPairs, s.ctrl.PairsRemaining())
}

func (s *ControllerSuite) TestPlayerMatchScoresAndPassesTurn() {
	s.True(s.ctrl.RequestFlip(0))
	s.Equal(AwaitingSecondFlip, s.ctrl.Phase())
	s.Equal(OneCardUp, s.ctrl.TurnState())

	s.True(s.ctrl.RequestFlip(2))
	s.Equal(Evaluating, s.ctrl.Phase())
	s.Equal(TwoCardUp, s.ctrl.TurnState())

	// Nothing is evaluated before the reveal delay.
	s.sched.Advance(DefaultRevealDelay - time.Millisecond)
	p, _ := s.ctrl.Scores()
	s.Equal(0, p)

	s.sched.Advance(time.Millisecond)
	p, o := s.ctrl.Scores()
	s.Equal(1, p)
	s.Equal(0, o)
	s.Equal(7, s.ctrl.PairsRemaining())
	s.Equal(Opponent, s.ctrl.Owner())
	s.Equal(OpponentMoving, s.ctrl.Phase())
	s.Equal(NoCardUp, s.ctrl.TurnState())
	s.True(s.ctrl.Deck().Cards[0].Disabled)
	s.True(s.ctrl.Deck().Cards[2].Disabled)

	s.Equal([]string{
		"scores:0-0", "turn:player",
		"reveal:0", "reveal:2",
		"disable:0", "disable:2",
		"scores:1-0", "turn:opponent",
	}, s.rec.events)

	s.Require().Len(s.rec.turns, 1)
	s.Equal(TurnRecord{
		MatchID: "test-match", Round: 1, Side: Player, First: 0, Second: 2, PictureID: 1,
		Matched: true, PlayerScore: 1, OpponentScore: 0, PairsRemaining: 7,
	}, s.rec.turns[0])
}

func (s *ControllerSuite) TestMismatchHidesCardsAfterDelay() {
	s.True(s.ctrl.RequestFlip(0))
	s.True(s.ctrl.RequestFlip(1))
	s.True(s.ctrl.Deck().Cards[0].FaceUp)
	s.True(s.ctrl.Deck().Cards[1].FaceUp)

	s.sched.Advance(DefaultRevealDelay)

	s.False(s.ctrl.Deck().Cards[0].FaceUp)
	s.False(s.ctrl.Deck().Cards[1].FaceUp)
	s.False(s.ctrl.Deck().Cards[0].Disabled)
	p, o := s.ctrl.Scores()
	s.Equal(0, p)
	s.Equal(0, o)
	s.Equal(NumPairs, s.ctrl.PairsRemaining())
	s.Equal(Opponent, s.ctrl.Owner())
	s.Equal(1, s.rec.count("hide:0"))
	s.Equal(1, s.rec.count("hide:1"))
	s.False(s.rec.turns[0].Matched)
}

func (s *ControllerSuite) TestFlipsIgnoredWhileGuarded() {
	s.False(s.ctrl.RequestFlip(-1))
	s.False(s.ctrl.RequestFlip(DeckSize))

	s.True(s.ctrl.RequestFlip(0))
	s.False(s.ctrl.RequestFlip(0), "a face-up card cannot be flipped again")

	s.True(s.ctrl.RequestFlip(1))
	before := s.ctrl.State()
	s.False(s.ctrl.RequestFlip(4), "evaluation pending")
	s.Equal(before, s.ctrl.State())

	s.sched.Advance(DefaultRevealDelay)
	s.Require().Equal(OpponentMoving, s.ctrl.Phase())
	before = s.ctrl.State()
	s.False(s.ctrl.RequestFlip(4), "opponent's turn")
	s.Equal(before, s.ctrl.State())
}

func (s *ControllerSuite) TestDisabledCardCannotBeFlipped() {
	s.ctrl.RequestFlip(0)
	s.ctrl.RequestFlip(2)
	s.sched.Advance(DefaultRevealDelay)
	// Opponent: unseen is [1 3 4 ...]; zero draws pick 1 then 3, a match on picture 2.
	s.sched.Advance(3 * DefaultRevealDelay)
	s.Require().Equal(Player, s.ctrl.Owner())

	s.False(s.ctrl.RequestFlip(0))
	s.False(s.ctrl.RequestFlip(1))
}

func (s *ControllerSuite) TestTurnAlternatesAfterEveryEvaluation() {
	s.ctrl.RequestFlip(0)
	s.ctrl.RequestFlip(2)
	s.sched.Advance(DefaultRevealDelay)
	s.Equal(Opponent, s.ctrl.Owner())

	s.sched.Advance(DefaultRevealDelay)
	s.True(s.ctrl.Deck().Cards[1].FaceUp, "opponent's first card is up after one delay")
	s.Equal(OneCardUp, s.ctrl.TurnState())

	s.sched.Advance(DefaultRevealDelay)
	s.True(s.ctrl.Deck().Cards[3].FaceUp)
	s.Equal(Evaluating, s.ctrl.Phase())

	s.sched.Advance(DefaultRevealDelay)
	_, o := s.ctrl.Scores()
	s.Equal(1, o)
	s.Equal(Player, s.ctrl.Owner(), "a match does not grant another turn")
	s.Equal(Idle, s.ctrl.Phase())
	s.Equal(2, s.ctrl.Round())
	s.Equal(6, s.ctrl.PairsRemaining())
}

func (s *ControllerSuite) TestOpponentRemembersWhatItSees() {
	s.ctrl.RequestFlip(0)
	s.ctrl.RequestFlip(1)
	s.sched.Advance(DefaultRevealDelay)

	idx, ok := s.ctrl.Memory().Remembered(1)
	s.True(ok)
	s.Equal(0, idx)
	idx, ok = s.ctrl.Memory().Remembered(2)
	s.True(ok)
	s.Equal(1, idx)
	remembered, unseen := s.ctrl.Memory().Sizes()
	s.Equal(DeckSize, remembered+unseen)
}

// setUpLastPair leaves only picture 5 (cards 8 and 10) in play with the
// opponent to move, card 8 remembered and card 10 unseen.
func (s *ControllerSuite) setUpLastPair(playerScore, opponentScore int) {
	c := s.ctrl
	for i, card := range c.deck.Cards {
		if card.PictureID != 5 {
			s.Require().NoError(c.deck.Remove(i))
		}
	}
	c.memory = &Memory{remembered: map[int]int{5: 8}, unseen: map[int]struct{}{10: {}}}
	c.scores = [2]int{playerScore, opponentScore}
	c.pairsRemaining = 1
	c.round = 13
	c.owner = Opponent
	c.beginOpponentMove()
}

func (s *ControllerSuite) TestLastPairIsAlwaysRecalled() {
	s.rng.QueueFloat64(0.99)
	s.setUpLastPair(4, 3)

	s.sched.Advance(DefaultRevealDelay)
	s.True(s.ctrl.Deck().Cards[10].FaceUp)
	s.sched.Advance(DefaultRevealDelay)
	s.True(s.ctrl.Deck().Cards[8].FaceUp)
	s.sched.Advance(DefaultRevealDelay)

	s.Equal(0, s.rng.FloatCalls())
	p, o := s.ctrl.Scores()
	s.Equal(4, p)
	s.Equal(4, o)
	s.Equal(0, s.ctrl.PairsRemaining())
	s.Equal(GameOver, s.ctrl.Phase())
	outcome, ok := s.ctrl.Outcome()
	s.True(ok)
	s.Equal(PlayerWins, outcome, "a tie goes to the player")
	remembered, unseen := s.ctrl.Memory().Sizes()
	s.Zero(remembered + unseen)
}

func (s *ControllerSuite) TestGameEndSignalledOnceAfterDelay() {
	s.setUpLastPair(3, 4)
	s.sched.Advance(3 * DefaultRevealDelay)
	s.Require().Equal(GameOver, s.ctrl.Phase())
	s.Equal(1, s.rec.count("result:opponent wins"))
	s.Require().Len(s.rec.results, 1)
	s.Equal(ResultRecord{MatchID: "test-match", PlayerScore: 3, OpponentScore: 5, Outcome: OpponentWins, Rounds: 14}, s.rec.results[0])

	s.sched.Advance(DefaultGameOverDelay - time.Millisecond)
	s.Zero(s.rec.lost)
	s.False(s.ctrl.Ended())

	s.sched.Advance(time.Millisecond)
	s.Equal(1, s.rec.lost)
	s.Zero(s.rec.won)
	s.True(s.ctrl.Ended())

	s.ctrl.signalEnd()
	s.sched.RunAll(100)
	s.Equal(1, s.rec.lost)
	s.False(s.ctrl.RequestFlip(8))
}

func (s *ControllerSuite) TestExhaustedSelectionHaltsGame() {
	s.ctrl.memory = &Memory{remembered: map[int]int{}, unseen: map[int]struct{}{}}
	s.ctrl.owner = Opponent
	s.ctrl.beginOpponentMove()

	s.True(errors.Is(s.ctrl.Err(), matcherrors.ErrSelectionExhausted))
	s.Equal(GameOver, s.ctrl.Phase())
	s.True(s.ctrl.Ended())
	_, ok := s.ctrl.Outcome()
	s.False(ok)
	s.Zero(s.sched.Pending())
}

func (s *ControllerSuite) TestOpponentFlipOnUnavailableCardHaltsGame() {
	s.setUpLastPair(3, 4)
	s.ctrl.deck.Cards[10].FaceUp = true

	s.sched.Advance(DefaultRevealDelay)

	s.True(errors.Is(s.ctrl.Err(), matcherrors.ErrInvariant))
	s.Equal(GameOver, s.ctrl.Phase())
	s.True(s.ctrl.Ended())
	s.Equal(1, s.ctrl.InvariantViolations())
	s.False(s.ctrl.Deck().Cards[8].FaceUp)
	s.Zero(s.sched.Pending())
}

func (s *ControllerSuite) TestStateReflectsController() {
	s.ctrl.RequestFlip(5)
	st := s.ctrl.State()

	s.Equal("game_state", st.Type)
	s.Equal("test-match", st.GameID)
	s.Equal("player", st.Turn)
	s.Equal("awaiting_second_flip", st.Phase)
	s.Equal("one_card_up", st.TurnState)
	s.Require().NotNil(st.Cards[5].PictureID)
	s.Equal(4, *st.Cards[5].PictureID)
	s.Nil(st.Cards[0].PictureID)
	s.Empty(st.Result)
}

// TestRandomGamesKeepInvariants plays complete games with a random human
// and checks the memory partition and score bookkeeping after every step.
func TestRandomGamesKeepInvariants(t *testing.T) {
	for _, pool := range []ai.Pool{ai.PoolUnseen, ai.PoolEnabled} {
		for seed := int64(1); seed <= 100; seed++ {
			t.Run(fmt.Sprintf("%s/%d", pool, seed), func(t *testing.T) {
				playRandomGame(t, pool, seed)
			})
		}
	}
}

func playRandomGame(t *testing.T, pool ai.Pool, seed int64) {
	sched := clock.NewManual()
	rec := &recorder{}
	c := NewController(Options{
		MatchID:   "prop",
		Random:    random.NewSeeded(seed),
		Scheduler: sched,
		Pool:      pool,
		Hooks:     rec.hooks(),
	})
	human := random.NewSeeded(seed * 7919)
	c.Start()

	for steps := 0; !c.Ended(); steps++ {
		require.Less(t, steps, 10000, "game did not finish")

		if c.Owner() == Player && c.Phase().acceptsPlayerFlip() {
			var candidates []int
			for _, card := range c.Deck().Cards {
				if card.Enabled() && !card.FaceUp {
					candidates = append(candidates, card.Index)
				} else {
					assert.False(t, c.RequestFlip(card.Index), "unavailable card %d accepted", card.Index)
				}
			}
			require.NotEmpty(t, candidates)
			require.True(t, c.RequestFlip(candidates[human.Intn(len(candidates))]))
		} else {
			d, ok := sched.NextDue()
			require.True(t, ok, "stalled in phase %s", c.Phase())
			sched.Advance(d)
		}
		checkInvariants(t, c)
	}

	require.NoError(t, c.Err())
	assert.Zero(t, c.InvariantViolations())
	p, o := c.Scores()
	assert.Equal(t, NumPairs, p+o)
	assert.True(t, c.Deck().AllMatched())
	assert.Equal(t, 1, rec.won+rec.lost)
	if DecideOutcome(p, o) == PlayerWins {
		assert.Equal(t, 1, rec.won)
	} else {
		assert.Equal(t, 1, rec.lost)
	}
	assert.Len(t, rec.turns, c.Round())
	assert.Len(t, rec.results, 1)
}

func checkInvariants(t *testing.T, c *Controller) {
	t.Helper()
	remembered, unseen := c.Memory().Sizes()
	require.Equal(t, c.Deck().EnabledCount(), remembered+unseen, "memory partition size")

	p, o := c.Scores()
	require.Equal(t, NumPairs, p+o+c.PairsRemaining())

	for _, card := range c.Deck().Cards {
		if !card.Enabled() {
			require.False(t, c.Memory().IsUnseen(card.Index))
			continue
		}
		idx, known := c.Memory().Remembered(card.PictureID)
		inRemembered := known && idx == card.Index
		require.NotEqual(t, inRemembered, c.Memory().IsUnseen(card.Index),
			"card %d must be in exactly one memory set", card.Index)
		if known {
			require.True(t, c.Deck().Cards[idx].Enabled())
		}
	}

	require.Equal(t, c.Round()%2 == 0, c.Owner() == Player, "turn owner after %d rounds", c.Round())
}
