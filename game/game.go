package game

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"pairs-server/ai"
	"pairs-server/config"
	"pairs-server/matcherrors"
	"pairs-server/random"
)

// ActionType enumerates the kinds of actions a game can process.
type ActionType int

const (
	ActionFlipCard   ActionType = iota
	ActionTimer                 // internal: a scheduled delay elapsed
	ActionSnapshot              // read the current state from another goroutine
	ActionDisconnect            // the player left; stop the game
)

// Action is sent into the game's action channel.
type Action struct {
	Type  ActionType
	Index int           // card index (for FlipCard)
	Fn    func()        // callback (for Timer)
	Reply chan StateMsg // buffered reply channel (for Snapshot)
}

// Game runs one Controller on its own goroutine. Every input, including the
// controller's timed callbacks, is processed in order from Actions.
type Game struct {
	ID         string
	Controller *Controller
	Actions    chan Action
	Done       chan struct{}

	// OnState, if set, receives the player's view after every action that
	// changed it. Called on the game goroutine; set it before Run.
	OnState func(StateMsg)

	lastSent StateMsg
	final    StateMsg // written once before Done is closed
}

// NewGame creates a game against the memory opponent using cfg's delays and first-pick pool.
func NewGame(id string, cfg *config.Config, hooks Hooks, rng random.Random, logger *slog.Logger) *Game {
	g := &Game{
		ID:      id,
		Actions: make(chan Action, 16),
		Done:    make(chan struct{}),
	}
	g.Controller = NewController(Options{
		MatchID:       id,
		Random:        rng,
		Scheduler:     loopScheduler{g: g},
		RevealDelay:   cfg.RevealDelay(),
		GameOverDelay: cfg.GameOverDelay(),
		Pool:          ai.ParsePool(cfg.FirstPickPool),
		Hooks:         hooks,
		Logger:        logger,
	})
	return g
}

// Run is the main game loop. It processes actions sequentially until the game
// ends, the player disconnects or ctx is cancelled. It should be run as a goroutine.
func (g *Game) Run(ctx context.Context) {
	defer func() {
		g.final = g.Controller.State()
		close(g.Done)
	}()

	g.Controller.Start()
	g.emit()

	for {
		select {
		case <-ctx.Done():
			return
		case action := <-g.Actions:
			switch action.Type {
			case ActionFlipCard:
				g.Controller.RequestFlip(action.Index)
				g.emit()
			case ActionTimer:
				action.Fn()
				g.emit()
			case ActionSnapshot:
				action.Reply <- g.Controller.State()
			case ActionDisconnect:
				g.Controller.logger.Info("player disconnected")
				return
			}
			if g.Controller.Ended() {
				return
			}
		}
	}
}

func (g *Game) emit() {
	if g.OnState == nil {
		return
	}
	st := g.Controller.State()
	if reflect.DeepEqual(st, g.lastSent) {
		return
	}
	g.lastSent = st
	g.OnState(st)
}

// Flip queues a flip request for the player. Requests the controller rejects
// are dropped silently; Flip only fails once the game loop has exited.
func (g *Game) Flip(index int) error {
	if !g.send(Action{Type: ActionFlipCard, Index: index}) {
		return matcherrors.ErrGameFinished
	}
	return nil
}

// Disconnect stops the game loop.
func (g *Game) Disconnect() {
	g.send(Action{Type: ActionDisconnect})
}

// Snapshot returns the current state, read on the game goroutine.
// Once the loop has exited it returns the final state.
func (g *Game) Snapshot(ctx context.Context) (StateMsg, error) {
	reply := make(chan StateMsg, 1)
	select {
	case g.Actions <- Action{Type: ActionSnapshot, Reply: reply}:
	case <-g.Done:
		return g.final, nil
	case <-ctx.Done():
		return StateMsg{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-g.Done:
		return g.final, nil
	case <-ctx.Done():
		return StateMsg{}, ctx.Err()
	}
}

// Finished reports whether the game loop has exited.
func (g *Game) Finished() bool {
	select {
	case <-g.Done:
		return true
	default:
		return false
	}
}

func (g *Game) send(a Action) bool {
	if g.Finished() {
		return false
	}
	select {
	case g.Actions <- a:
		return true
	case <-g.Done:
		return false
	}
}

// loopScheduler delivers delayed callbacks through the game's action channel
// so they run on the game goroutine.
type loopScheduler struct {
	g *Game
}

func (s loopScheduler) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case s.g.Actions <- Action{Type: ActionTimer, Fn: fn}:
		case <-s.g.Done:
		}
	})
}
