package ai

import (
	"fmt"
	"strings"

	"pairs-server/matcherrors"
	"pairs-server/random"
)

// RecallChance is the probability that the opponent turns over the partner it
// remembers when its first card's picture is already known.
const RecallChance = 0.75

// Pool selects which cards the opponent may draw its first flip from.
type Pool int

const (
	// PoolUnseen restricts the first flip to cards whose picture was never observed.
	PoolUnseen Pool = iota
	// PoolEnabled lets the first flip land on any card still in play.
	PoolEnabled
)

// String returns the configuration name of a Pool.
func (p Pool) String() string {
	switch p {
	case PoolUnseen:
		return "unseen"
	case PoolEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// ParsePool maps a configuration name to a Pool. Unknown names map to PoolUnseen.
func ParsePool(s string) Pool {
	if strings.EqualFold(strings.TrimSpace(s), "enabled") {
		return PoolEnabled
	}
	return PoolUnseen
}

// Reasons the opponent gives for its second card, used in debug logs.
const (
	ReasonFresh      = "fresh"       // first picture was new; second drawn from unseen
	ReasonRecall     = "recall"      // remembered partner turned over on purpose
	ReasonLastPair   = "last_pair"   // recall forced because only one pair remains
	ReasonRecallMiss = "recall_miss" // partner was known but the opponent guessed instead
)

// Snapshot is an immutable view of the opponent's memory at the start of its turn.
type Snapshot struct {
	// Remembered maps pictureID to the index of the one observed card recorded for it.
	Remembered map[int]int
	// Unseen holds the indices of enabled cards the opponent never memorised, ascending.
	Unseen []int
	// Enabled holds the indices of every card still in play, ascending. Only PoolEnabled reads it.
	Enabled []int
	// Reveal returns the picture on a card. It is only called for the card the
	// opponent turns over first, which is face up by the time its second pick matters.
	Reveal func(index int) int
}

// Move is the opponent's pair of flips for one turn.
type Move struct {
	First        int
	Second       int
	FirstPicture int
	Reason       string
}

// SelectOpponentMove chooses both cards of an opponent turn without mutating snap.
// The caller applies memory updates as the flips are carried out.
func SelectOpponentMove(snap Snapshot, pairsRemaining int, pool Pool, rng random.Random) (Move, error) {
	candidates := snap.Unseen
	if pool == PoolEnabled {
		candidates = snap.Enabled
	}
	if len(candidates) == 0 {
		return Move{}, fmt.Errorf("%w: first flip from %s pool", matcherrors.ErrSelectionExhausted, pool)
	}
	first := candidates[rng.Intn(len(candidates))]
	picture := snap.Reveal(first)

	partner, known := snap.Remembered[picture]
	if !known || partner == first {
		// The picture is new to the opponent (or the card drawn is the one it remembers).
		// Either way it has no location to recall, so it guesses among the unseen cards.
		rest := without(snap.Unseen, first)
		if len(rest) == 0 {
			return Move{}, fmt.Errorf("%w: second flip after fresh card %d", matcherrors.ErrSelectionExhausted, first)
		}
		return Move{First: first, Second: rest[rng.Intn(len(rest))], FirstPicture: picture, Reason: ReasonFresh}, nil
	}

	if pairsRemaining == 1 {
		return Move{First: first, Second: partner, FirstPicture: picture, Reason: ReasonLastPair}, nil
	}
	if rng.Float64() < RecallChance {
		return Move{First: first, Second: partner, FirstPicture: picture, Reason: ReasonRecall}, nil
	}

	// Deliberate miss: draw from unseen, stepping past the first card on a collision.
	unseen := snap.Unseen
	if len(unseen) == 0 || (len(unseen) == 1 && unseen[0] == first) {
		return Move{}, fmt.Errorf("%w: wrong guess with no other unseen card", matcherrors.ErrSelectionExhausted)
	}
	i := rng.Intn(len(unseen))
	if unseen[i] == first {
		i = (i + 1) % len(unseen)
	}
	return Move{First: first, Second: unseen[i], FirstPicture: picture, Reason: ReasonRecallMiss}, nil
}

// without returns a copy of indices minus idx, preserving order.
func without(indices []int, idx int) []int {
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i != idx {
			out = append(out, i)
		}
	}
	return out
}
