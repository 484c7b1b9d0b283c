package matcherrors

import "errors"

// Game and session sentinel errors. Shared by game, ai, matchmaking, ws and api
// to avoid circular imports.
var (
	// ErrInvariant marks an internal consistency failure: a card expected in the
	// memory partition or the enabled pool was not there.
	ErrInvariant = errors.New("game invariant violated")

	// ErrSelectionExhausted means the opponent had no candidate card to draw.
	// Turn scheduling guarantees this never happens during normal play.
	ErrSelectionExhausted = errors.New("no candidate cards to select from")

	ErrInvalidDeck  = errors.New("invalid deck layout")
	ErrGameNotFound = errors.New("game not found")
	ErrGameFinished = errors.New("game finished")
	ErrUnauthorized = errors.New("unauthorized")
)
