package dataset

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSampleSize is returned when the requested sample size is not positive.
	ErrInvalidSampleSize = errors.New("sample size must be positive")
	// ErrSampleTooLarge is returned when more samples are requested than the dataset holds.
	ErrSampleTooLarge = errors.New("sample size exceeds dataset size")
)

// SampleIndices draws n distinct indices uniformly at random from [0, size).
// Every n-subset is equally likely and the order of the result is random.
//
// Arguments:
//   - rng: The random source.
//   - size: The number of items to draw from.
//   - n: The number of indices to draw.
//
// Returns:
//   - []int: The indices.
//   - error: ErrInvalidSampleSize or ErrSampleTooLarge.
func SampleIndices(rng *rand.Rand, size, n int) ([]int, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidSampleSize, "got %d", n)
	}
	if n > size {
		return nil, errors.Wrapf(ErrSampleTooLarge, "%d > %d", n, size)
	}

	// Partial Fisher-Yates over a virtual [0,size) slice; only displaced
	// positions are stored.
	displaced := make(map[int]int, n)
	at := func(i int) int {
		if v, ok := displaced[i]; ok {
			return v
		}
		return i
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(size-i)
		out[i] = at(j)
		displaced[j] = at(i)
	}
	return out, nil
}

// Sampler draws samples from a seeded PCG source. It is safe for concurrent use.
type Sampler struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed uint64
}

// NewSampler creates a sampler. A zero seed is replaced by one derived from the clock.
func NewSampler(seed uint64) *Sampler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Sampler{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// Seed returns the seed the sampler was created with.
func (s *Sampler) Seed() uint64 {
	return s.seed
}

// Sample draws n distinct indices from [0, size).
func (s *Sampler) Sample(size, n int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SampleIndices(s.rng, size, n)
}
