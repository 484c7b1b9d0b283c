package game

import "log/slog"

// Renderer receives per-card visual commands.
type Renderer interface {
	Reveal(c Card)
	Hide(c Card)
	Disable(c Card)
}

// Display receives the turn label, the running scores and the final result.
type Display interface {
	ShowTurn(owner Side)
	ShowScores(player, opponent int)
	ShowResult(o Outcome)
}

// SessionShell is told once how the game ended, after the game-over delay.
type SessionShell interface {
	OnGameWon()
	OnGameLost()
}

// TurnRecord describes one evaluated pair of flips.
type TurnRecord struct {
	MatchID        string
	Round          int
	Side           Side
	First          int
	Second         int
	PictureID      int // picture of the first card
	Matched        bool
	PlayerScore    int
	OpponentScore  int
	PairsRemaining int
}

// ResultRecord describes a finished game.
type ResultRecord struct {
	MatchID       string
	PlayerScore   int
	OpponentScore int
	Outcome       Outcome
	Rounds        int
}

// TelemetrySink is called to record turn and result events. Optional; may be nil.
type TelemetrySink interface {
	RecordTurn(rec TurnRecord)
	RecordResult(rec ResultRecord)
}

// Hooks bundles the external collaborators a controller reports to. Nil fields are skipped.
type Hooks struct {
	Renderer  Renderer
	Display   Display
	Shell     SessionShell
	Telemetry TelemetrySink
}

// MultiSink fans telemetry out to several sinks, skipping nil entries.
type MultiSink []TelemetrySink

// RecordTurn forwards rec to every sink.
func (m MultiSink) RecordTurn(rec TurnRecord) {
	for _, s := range m {
		if s != nil {
			s.RecordTurn(rec)
		}
	}
}

// RecordResult forwards rec to every sink.
func (m MultiSink) RecordResult(rec ResultRecord) {
	for _, s := range m {
		if s != nil {
			s.RecordResult(rec)
		}
	}
}

// logTelemetry writes turn and result events to the structured log.
type logTelemetry struct {
	logger *slog.Logger
}

func (l logTelemetry) RecordTurn(rec TurnRecord) {
	l.logger.Debug("turn evaluated", "match", rec.MatchID, "round", rec.Round, "side", rec.Side.String(),
		"first", rec.First, "second", rec.Second, "matched", rec.Matched, "pairs_remaining", rec.PairsRemaining)
}

func (l logTelemetry) RecordResult(rec ResultRecord) {
	l.logger.Info("game finished", "match", rec.MatchID, "result", rec.Outcome.String(),
		"player", rec.PlayerScore, "opponent", rec.OpponentScore, "rounds", rec.Rounds)
}
