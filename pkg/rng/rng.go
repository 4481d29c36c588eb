// Package rng provides the seedable random source shared by the simulator.
package rng

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is a concurrency-safe random source.
type Source interface {
	// IntN returns a uniform int in [0, n). It panics if n <= 0.
	IntN(n int) int
	// Coin returns a fair boolean.
	Coin() bool
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a Source seeded with seed. A zero seed derives one from the
// current time, so runs are not reproducible.
func New(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Coin() bool {
	return s.IntN(2) == 1
}

// Choice returns a uniformly chosen element of items. items must be non-empty.
func Choice[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Between returns a uniform int in [lo, hi). It panics if hi <= lo.
func Between(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo)
}

// SamplePair draws two distinct indexes from [0, n) without replacement.
// n must be at least 2.
func SamplePair(src Source, n int) (int, int) {
	i := src.IntN(n)
	j := src.IntN(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
