package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairs-server/game"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS match_history (
	id             UUID PRIMARY KEY,
	played_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	user_id        TEXT NOT NULL DEFAULT '',
	player_name    TEXT NOT NULL,
	opponent_name  TEXT NOT NULL,
	player_score   INT NOT NULL,
	opponent_score INT NOT NULL,
	outcome        TEXT NOT NULL,
	rounds         INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_match_history_user ON match_history(user_id);
CREATE TABLE IF NOT EXISTS turn (
	id                        UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	match_id                  UUID NOT NULL REFERENCES match_history(id),
	round                     INT NOT NULL,
	side                      TEXT NOT NULL,
	first_card                SMALLINT NOT NULL,
	second_card               SMALLINT NOT NULL,
	picture_id                SMALLINT NOT NULL,
	matched                   BOOLEAN NOT NULL,
	player_score_after_turn   INT NOT NULL,
	opponent_score_after_turn INT NOT NULL,
	pairs_remaining           INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turn_match_round ON turn(match_id, round);
`

// Store persists finished matches to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the tables exist.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// MatchResult is the row written when a match ends.
type MatchResult struct {
	MatchID       string
	UserID        string // empty for anonymous players
	PlayerName    string
	OpponentName  string
	PlayerScore   int
	OpponentScore int
	Outcome       string
	Rounds        int
}

// InsertMatchResult records a finished match. MatchID must be a UUID.
func (s *Store) InsertMatchResult(ctx context.Context, res MatchResult) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_history (id, user_id, player_name, opponent_name, player_score, opponent_score, outcome, rounds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.MatchID, res.UserID, res.PlayerName, res.OpponentName, res.PlayerScore, res.OpponentScore, res.Outcome, res.Rounds)
	return err
}

// InsertTurns writes a match's turn log in one transaction. Call after InsertMatchResult for the same matchID.
func (s *Store) InsertTurns(ctx context.Context, matchID string, turns []game.TurnRecord) error {
	if s == nil || s.pool == nil || len(turns) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range turns {
		batch.Queue(`
			INSERT INTO turn (match_id, round, side, first_card, second_card, picture_id, matched, player_score_after_turn, opponent_score_after_turn, pairs_remaining)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			matchID, t.Round, t.Side.String(), t.First, t.Second, t.PictureID, t.Matched, t.PlayerScore, t.OpponentScore, t.PairsRemaining)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert turns for %s: %w", matchID, err)
	}
	return tx.Commit(ctx)
}

// MatchRecord is a single row returned for the history API.
type MatchRecord struct {
	ID            string `json:"id"`
	PlayedAt      string `json:"played_at"` // ISO8601
	PlayerName    string `json:"player_name"`
	OpponentName  string `json:"opponent_name"`
	PlayerScore   int    `json:"player_score"`
	OpponentScore int    `json:"opponent_score"`
	Outcome       string `json:"outcome"`
	Rounds        int    `json:"rounds"`
}

// ListByUserID returns all matches the user played, ordered by played_at DESC.
func (s *Store) ListByUserID(ctx context.Context, userID string) ([]MatchRecord, error) {
	if s == nil || s.pool == nil {
		return []MatchRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, played_at, player_name, opponent_name, player_score, opponent_score, outcome, rounds
		FROM match_history
		WHERE user_id = $1
		ORDER BY played_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []MatchRecord{}
	for rows.Next() {
		var rec MatchRecord
		var playedAt time.Time
		if err := rows.Scan(&rec.ID, &playedAt, &rec.PlayerName, &rec.OpponentName,
			&rec.PlayerScore, &rec.OpponentScore, &rec.Outcome, &rec.Rounds); err != nil {
			return nil, err
		}
		rec.PlayedAt = playedAt.UTC().Format(time.RFC3339)
		list = append(list, rec)
	}
	return list, rows.Err()
}
