package game

import (
	"fmt"

	"pairs-server/matcherrors"
	"pairs-server/random"
)

const (
	// NumPairs is the number of distinct pictures on the board.
	NumPairs = 8
	// DeckSize is the number of cards on the board.
	DeckSize = 2 * NumPairs
)

// Card represents a single card on the board.
// PictureID is in 1..NumPairs and appears on exactly two cards.
type Card struct {
	Index     int
	PictureID int
	FaceUp    bool
	Disabled  bool
}

// Enabled reports whether the card is still in play.
func (c Card) Enabled() bool {
	return !c.Disabled
}

// Deck is the ordered set of cards for one game.
type Deck struct {
	Cards []Card
}

// NewDeck creates a deck with the pictures {1,1,2,2,...,8,8} shuffled uniformly.
func NewDeck(rng random.Random) *Deck {
	pictures := make([]int, DeckSize)
	for i := 0; i < NumPairs; i++ {
		pictures[2*i] = i + 1
		pictures[2*i+1] = i + 1
	}
	random.Shuffle(rng, len(pictures), func(i, j int) {
		pictures[i], pictures[j] = pictures[j], pictures[i]
	})
	d, _ := NewDeckFromPictures(pictures)
	return d
}

// NewDeckFromPictures creates a deck with a fixed layout: pictures[i] is the
// pictureID of card i. Every pictureID 1..NumPairs must appear exactly twice.
func NewDeckFromPictures(pictures []int) (*Deck, error) {
	if len(pictures) != DeckSize {
		return nil, fmt.Errorf("%w: %d cards, want %d", matcherrors.ErrInvalidDeck, len(pictures), DeckSize)
	}
	counts := make(map[int]int, NumPairs)
	cards := make([]Card, DeckSize)
	for i, pic := range pictures {
		if pic < 1 || pic > NumPairs {
			return nil, fmt.Errorf("%w: card %d has picture %d outside 1..%d", matcherrors.ErrInvalidDeck, i, pic, NumPairs)
		}
		counts[pic]++
		cards[i] = Card{Index: i, PictureID: pic}
	}
	for pic, n := range counts {
		if n != 2 {
			return nil, fmt.Errorf("%w: picture %d appears %d times", matcherrors.ErrInvalidDeck, pic, n)
		}
	}
	return &Deck{Cards: cards}, nil
}

// Card returns the card at index, or nil if the index is out of range.
func (d *Deck) Card(index int) *Card {
	if index < 0 || index >= len(d.Cards) {
		return nil
	}
	return &d.Cards[index]
}

// EnabledIndices returns the indices of every card still in play, ascending.
func (d *Deck) EnabledIndices() []int {
	out := make([]int, 0, len(d.Cards))
	for _, c := range d.Cards {
		if !c.Disabled {
			out = append(out, c.Index)
		}
	}
	return out
}

// EnabledCount returns how many cards are still in play.
func (d *Deck) EnabledCount() int {
	n := 0
	for _, c := range d.Cards {
		if !c.Disabled {
			n++
		}
	}
	return n
}

// Remove takes a card out of play: it is hidden and disabled.
// Removing a card that is already out of play is an invariant violation.
func (d *Deck) Remove(index int) error {
	c := d.Card(index)
	if c == nil {
		return fmt.Errorf("%w: remove card %d: no such card", matcherrors.ErrInvariant, index)
	}
	if c.Disabled {
		return fmt.Errorf("%w: remove card %d: not in the enabled pool", matcherrors.ErrInvariant, index)
	}
	c.FaceUp = false
	c.Disabled = true
	return nil
}

// AllMatched returns true if every card on the board has been removed.
func (d *Deck) AllMatched() bool {
	return d.EnabledCount() == 0
}
