package engine

import (
	"math/rand/v2"
	"sync"
)

// Shuffler permutes n elements by calling swap, like rand.Shuffle.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// RandomShuffler shuffles uniformly with a PCG generator. It is safe
// for concurrent use.
type RandomShuffler struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandomShuffler returns a RandomShuffler. The same seed always
// produces the same permutations.
func NewRandomShuffler(seed uint64) *RandomShuffler {
	return &RandomShuffler{
		r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *RandomShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r.Shuffle(n, swap)
}
