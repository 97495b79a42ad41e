package shared

import (
	"math/rand"
	"sync"
)

// RandomSource is the only source of nondeterminism in the simulation.
// Injecting it keeps selection and accident rolls reproducible under a fixed seed.
type RandomSource interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// SeededRandom is a goroutine-safe RandomSource backed by math/rand
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom creates a random source with a fixed seed
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{rng: rand.New(rand.NewSource(seed))}
}

func (r *SeededRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *SeededRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// Between returns a value uniformly drawn from [low, high)
func Between(r RandomSource, low, high float64) float64 {
	if high <= low {
		return low
	}
	return low + r.Float64()*(high-low)
}

// Chance reports whether a draw falls below the given probability (0..1)
func Chance(r RandomSource, probability float64) bool {
	if probability <= 0 {
		return false
	}
	return r.Float64() < probability
}

// FixedRandom returns scripted values in order, cycling when exhausted.
// Deterministic tests use it to pin draws; a zero-value FixedRandom always returns 0.
type FixedRandom struct {
	mu     sync.Mutex
	Values []float64
	next   int
}

// NewFixedRandom creates a scripted random source
func NewFixedRandom(values ...float64) *FixedRandom {
	return &FixedRandom{Values: values}
}

func (f *FixedRandom) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Values) == 0 {
		return 0
	}
	v := f.Values[f.next%len(f.Values)]
	f.next++
	return v
}

func (f *FixedRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(f.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
