package storage

import (
	"context"

	"pairs-server/game"
)

// HistoryStore abstracts persistence for finished matches and their turn logs.
// Implementations can be swapped for testing (mocks) or different backends.
type HistoryStore interface {
	// Read
	ListByUserID(ctx context.Context, userID string) ([]MatchRecord, error)

	// Write
	InsertMatchResult(ctx context.Context, res MatchResult) error
	InsertTurns(ctx context.Context, matchID string, turns []game.TurnRecord) error

	// Lifecycle
	Close()
}

// Ensure *Store implements HistoryStore at compile time.
var _ HistoryStore = (*Store)(nil)
