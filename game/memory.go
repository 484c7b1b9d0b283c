package game

import (
	"fmt"
	"sort"

	"pairs-server/ai"
	"pairs-server/matcherrors"
)

// Memory is the opponent's partition of the enabled cards into remembered and
// unseen. A picture is remembered through the first card it was seen on; the
// other card of that picture stays unseen until the pair is matched, because
// the opponent never memorised its position.
type Memory struct {
	remembered map[int]int      // pictureID -> card index
	unseen     map[int]struct{} // card indices
}

// NewMemory starts with every enabled card of the deck unseen.
func NewMemory(deck *Deck) *Memory {
	m := &Memory{
		remembered: make(map[int]int, NumPairs),
		unseen:     make(map[int]struct{}, len(deck.Cards)),
	}
	for _, idx := range deck.EnabledIndices() {
		m.unseen[idx] = struct{}{}
	}
	return m
}

// Observe records that a card was turned face up. If its picture was not
// remembered yet, the card moves from unseen to remembered and Observe
// returns true. Otherwise nothing changes.
func (m *Memory) Observe(c *Card) bool {
	if _, known := m.remembered[c.PictureID]; known {
		return false
	}
	if _, ok := m.unseen[c.Index]; !ok {
		return false
	}
	delete(m.unseen, c.Index)
	m.remembered[c.PictureID] = c.Index
	return true
}

// Forget removes a matched card from whichever set holds it. A card found in
// neither set is an invariant violation; the partition is left untouched.
func (m *Memory) Forget(c *Card) error {
	if idx, ok := m.remembered[c.PictureID]; ok && idx == c.Index {
		delete(m.remembered, c.PictureID)
		return nil
	}
	if _, ok := m.unseen[c.Index]; ok {
		delete(m.unseen, c.Index)
		return nil
	}
	return fmt.Errorf("%w: card %d (picture %d) missing from opponent memory", matcherrors.ErrInvariant, c.Index, c.PictureID)
}

// Remembered returns the card index remembered for a picture.
func (m *Memory) Remembered(pictureID int) (int, bool) {
	idx, ok := m.remembered[pictureID]
	return idx, ok
}

// IsUnseen reports whether the card at index is in the unseen set.
func (m *Memory) IsUnseen(index int) bool {
	_, ok := m.unseen[index]
	return ok
}

// Sizes returns |remembered| and |unseen|.
func (m *Memory) Sizes() (remembered, unseen int) {
	return len(m.remembered), len(m.unseen)
}

// Snapshot copies the partition into the immutable form the move selector reads.
func (m *Memory) Snapshot(deck *Deck) ai.Snapshot {
	remembered := make(map[int]int, len(m.remembered))
	for pic, idx := range m.remembered {
		remembered[pic] = idx
	}
	unseen := make([]int, 0, len(m.unseen))
	for idx := range m.unseen {
		unseen = append(unseen, idx)
	}
	sort.Ints(unseen)
	return ai.Snapshot{
		Remembered: remembered,
		Unseen:     unseen,
		Enabled:    deck.EnabledIndices(),
		Reveal: func(index int) int {
			return deck.Cards[index].PictureID
		},
	}
}
