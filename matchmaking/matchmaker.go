package matchmaking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairs-server/config"
	"pairs-server/game"
	"pairs-server/matcherrors"
	"pairs-server/random"
	"pairs-server/storage"
	"pairs-server/ws"
	"pairs-server/wsutil"
)

// FinishedRetention is how long a finished game stays available to Lookup.
const FinishedRetention = 10 * time.Minute

// Matchmaker starts games between a connected player and the memory opponent
// and keeps a registry of them by ID.
type Matchmaker struct {
	ctx    context.Context
	config *config.Config
	store  storage.HistoryStore // optional
	events game.TelemetrySink   // optional
	logger *slog.Logger

	// NewRandom supplies each game's random source. Defaults to random.New.
	NewRandom func() random.Random

	mu    sync.Mutex
	games map[string]*game.Game
}

// Ensure *Matchmaker implements ws.MatchmakerInterface
var _ ws.MatchmakerInterface = (*Matchmaker)(nil)

// NewMatchmaker creates a new Matchmaker. Games it starts stop when ctx is cancelled.
// store and events may be nil.
func NewMatchmaker(ctx context.Context, cfg *config.Config, store storage.HistoryStore, events game.TelemetrySink) *Matchmaker {
	return &Matchmaker{
		ctx:       ctx,
		config:    cfg,
		store:     store,
		events:    events,
		logger:    slog.Default().With("tag", "matchmaking"),
		NewRandom: func() random.Random { return random.New() },
		games:     make(map[string]*game.Game),
	}
}

// StartGame creates a game for c against the opponent, announces it with
// game_started and runs it on its own goroutine.
func (m *Matchmaker) StartGame(c *ws.Client) (*game.Game, error) {
	id := uuid.NewString()
	view := ws.NewView(c, id)

	telemetry := game.MultiSink{}
	if m.store != nil {
		telemetry = append(telemetry, storage.NewRecorder(m.store, storage.MatchInfo{
			UserID:       c.UserID,
			PlayerName:   c.Name,
			OpponentName: m.config.OpponentName,
		}))
	}
	if m.events != nil {
		telemetry = append(telemetry, m.events)
	}
	hooks := game.Hooks{Shell: view}
	if len(telemetry) > 0 {
		hooks.Telemetry = telemetry
	}

	g := game.NewGame(id, m.config, hooks, m.NewRandom(), m.logger)
	g.OnState = view.PushState

	m.mu.Lock()
	m.games[id] = g
	m.mu.Unlock()
	c.SetGame(g)

	m.logger.Info("game created", "game", id, "player", c.Name, "opponent", m.config.OpponentName)

	wsutil.SendJSON(c.Send, ws.GameStartedMsg{
		Type:         "game_started",
		GameID:       id,
		PlayerName:   c.Name,
		OpponentName: m.config.OpponentName,
		Cards:        game.DeckSize,
		YourTurn:     true,
	})

	go func() {
		g.Run(m.ctx)
		time.AfterFunc(FinishedRetention, func() { m.remove(id) })
	}()
	return g, nil
}

// Lookup returns a running or recently finished game.
func (m *Matchmaker) Lookup(id string) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, matcherrors.ErrGameNotFound
	}
	return g, nil
}

// ActiveGames returns how many registered games are still running.
func (m *Matchmaker) ActiveGames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.games {
		if !g.Finished() {
			n++
		}
	}
	return n
}

func (m *Matchmaker) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
}
