package clock

import (
	"sort"
	"time"
)

// Scheduler runs callbacks after a delay. Implementations decide on which
// goroutine the callback runs; the game runner routes them back onto its own loop.
type Scheduler interface {
	After(d time.Duration, fn func())
}

type scheduled struct {
	at  time.Duration
	seq int
	fn  func()
}

// Manual is a virtual-time Scheduler for tests. Nothing fires until Advance
// is called, and callbacks run synchronously on the caller's goroutine in
// due-time order (ties in scheduling order).
type Manual struct {
	now     time.Duration
	seq     int
	pending []scheduled
}

// Ensure Manual implements Scheduler
var _ Scheduler = (*Manual)(nil)

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After queues fn to run once virtual time reaches now+d.
func (m *Manual) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	m.seq++
	m.pending = append(m.pending, scheduled{at: m.now + d, seq: m.seq, fn: fn})
}

// Advance moves virtual time forward by d, running every callback that falls
// due. Callbacks scheduled by callbacks also run if they are due before the target.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	for {
		next, ok := m.popDue(target)
		if !ok {
			break
		}
		m.now = next.at
		next.fn()
	}
	m.now = target
}

// RunAll advances until no callbacks are pending and returns the virtual time elapsed.
// limit bounds the number of callbacks run, guarding tests against runaway loops.
func (m *Manual) RunAll(limit int) time.Duration {
	start := m.now
	for i := 0; i < limit && len(m.pending) > 0; i++ {
		next, _ := m.popDue(time.Duration(1 << 62))
		m.now = next.at
		next.fn()
	}
	return m.now - start
}

// Now returns the current virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of callbacks not yet run.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// NextDue returns the delay until the earliest pending callback.
func (m *Manual) NextDue() (time.Duration, bool) {
	if len(m.pending) == 0 {
		return 0, false
	}
	m.sortPending()
	return m.pending[0].at - m.now, true
}

func (m *Manual) popDue(target time.Duration) (scheduled, bool) {
	if len(m.pending) == 0 {
		return scheduled{}, false
	}
	m.sortPending()
	if m.pending[0].at > target {
		return scheduled{}, false
	}
	next := m.pending[0]
	m.pending = m.pending[1:]
	return next, true
}

func (m *Manual) sortPending() {
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].at != m.pending[j].at {
			return m.pending[i].at < m.pending[j].at
		}
		return m.pending[i].seq < m.pending[j].seq
	})
}
