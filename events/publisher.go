package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"pairs-server/game"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Connect dials the NATS server at url. The connection retries a few times
// before giving up so a broker restart does not take game servers down.
func Connect(url, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(5),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "tag", "events", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "tag", "events", "url", nc.ConnectedUrl())
		}),
	}
	return nats.Connect(url, opts...)
}

// TurnEvent is published after every evaluated turn.
type TurnEvent struct {
	Type           string `json:"type"`
	MatchID        string `json:"matchId"`
	Round          int    `json:"round"`
	Side           string `json:"side"`
	First          int    `json:"first"`
	Second         int    `json:"second"`
	Matched        bool   `json:"matched"`
	PlayerScore    int    `json:"playerScore"`
	OpponentScore  int    `json:"opponentScore"`
	PairsRemaining int    `json:"pairsRemaining"`
}

// ResultEvent is published once when a match ends.
type ResultEvent struct {
	Type          string `json:"type"`
	MatchID       string `json:"matchId"`
	PlayerScore   int    `json:"playerScore"`
	OpponentScore int    `json:"opponentScore"`
	Result        string `json:"result"`
	Rounds        int    `json:"rounds"`
}

// Publisher is a game.TelemetrySink that publishes match events as JSON on
// <subject>.<matchID>.turn and <subject>.<matchID>.result.
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
}

// Ensure *Publisher implements game.TelemetrySink
var _ game.TelemetrySink = (*Publisher)(nil)

// NewPublisher creates a Publisher on conn under the subject prefix.
func NewPublisher(conn Conn, subject string) *Publisher {
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  slog.Default().With("tag", "events"),
	}
}

// Subject returns the subject an event kind for a match is published on.
func (p *Publisher) Subject(matchID, kind string) string {
	return fmt.Sprintf("%s.%s.%s", p.subject, matchID, kind)
}

// RecordTurn publishes a TurnEvent.
func (p *Publisher) RecordTurn(rec game.TurnRecord) {
	p.publish(p.Subject(rec.MatchID, "turn"), TurnEvent{
		Type:           "turn",
		MatchID:        rec.MatchID,
		Round:          rec.Round,
		Side:           rec.Side.String(),
		First:          rec.First,
		Second:         rec.Second,
		Matched:        rec.Matched,
		PlayerScore:    rec.PlayerScore,
		OpponentScore:  rec.OpponentScore,
		PairsRemaining: rec.PairsRemaining,
	})
}

// RecordResult publishes a ResultEvent.
func (p *Publisher) RecordResult(rec game.ResultRecord) {
	p.publish(p.Subject(rec.MatchID, "result"), ResultEvent{
		Type:          "result",
		MatchID:       rec.MatchID,
		PlayerScore:   rec.PlayerScore,
		OpponentScore: rec.OpponentScore,
		Result:        rec.Outcome.String(),
		Rounds:        rec.Rounds,
	})
}

func (p *Publisher) publish(subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("marshal event failed", "subject", subject, "err", err)
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("publish failed", "subject", subject, "err", err)
	}
}
