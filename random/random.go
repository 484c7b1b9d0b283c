package random

import (
	"math/rand"
	"sync"
	"time"
)

// Random provides random number generation that can be mocked for testing.
type Random interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int

	// Float64 returns a random float64 in [0.0, 1.0).
	Float64() float64
}

// MathRandom implements Random with a seeded math/rand source.
// It is safe for concurrent use.
type MathRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a MathRandom seeded from the current time.
func New() *MathRandom {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded creates a MathRandom with a fixed seed, for reproducible games.
func NewSeeded(seed int64) *MathRandom {
	return &MathRandom{rnd: rand.New(rand.NewSource(seed))}
}

// Intn returns a random int in [0, n). It returns 0 when n <= 0.
func (r *MathRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// Float64 returns a random float64 in [0.0, 1.0).
func (r *MathRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// Shuffle permutes n elements in place with Fisher-Yates, drawing from r.
func Shuffle(r Random, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}
