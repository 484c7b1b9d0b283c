package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pairs-server/game"
)

// DefaultWriteTimeout bounds how long a Recorder may spend writing one match.
const DefaultWriteTimeout = 5 * time.Second

// MatchInfo identifies who played a recorded match.
type MatchInfo struct {
	UserID       string
	PlayerName   string
	OpponentName string
}

// Recorder is a game.TelemetrySink for a single match. It buffers the turn
// log in memory and writes it together with the result once the match ends,
// so abandoned matches leave no rows behind.
type Recorder struct {
	store   HistoryStore
	info    MatchInfo
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	turns []game.TurnRecord
	wg    sync.WaitGroup
}

// Ensure *Recorder implements game.TelemetrySink
var _ game.TelemetrySink = (*Recorder)(nil)

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store HistoryStore, info MatchInfo) *Recorder {
	return &Recorder{
		store:   store,
		info:    info,
		timeout: DefaultWriteTimeout,
		logger:  slog.Default().With("tag", "storage"),
	}
}

// RecordTurn buffers one evaluated turn.
func (r *Recorder) RecordTurn(rec game.TurnRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns = append(r.turns, rec)
}

// RecordResult writes the result and the buffered turns in the background.
func (r *Recorder) RecordResult(rec game.ResultRecord) {
	r.mu.Lock()
	turns := r.turns
	r.turns = nil
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.flush(rec, turns)
	}()
}

// Wait blocks until every pending write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) flush(rec game.ResultRecord, turns []game.TurnRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	err := r.store.InsertMatchResult(ctx, MatchResult{
		MatchID:       rec.MatchID,
		UserID:        r.info.UserID,
		PlayerName:    r.info.PlayerName,
		OpponentName:  r.info.OpponentName,
		PlayerScore:   rec.PlayerScore,
		OpponentScore: rec.OpponentScore,
		Outcome:       rec.Outcome.String(),
		Rounds:        rec.Rounds,
	})
	if err != nil {
		r.logger.Error("insert match result failed", "match", rec.MatchID, "err", err)
		return
	}
	if err := r.store.InsertTurns(ctx, rec.MatchID, turns); err != nil {
		r.logger.Error("insert turns failed", "match", rec.MatchID, "turns", len(turns), "err", err)
		return
	}
	r.logger.Debug("match recorded", "match", rec.MatchID, "turns", len(turns))
}
