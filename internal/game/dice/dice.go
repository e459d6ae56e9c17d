// Package dice provides the randomness abstraction used by the combat
// resolver: independently seeded probability streams, one per outcome kind,
// plus a shared uniform stream for single-roll table sampling.
package dice

import (
	"fmt"
	"math/rand/v2"
)

// Stream is a single seeded pseudo-random stream.
//
// A Stream is not safe for concurrent use; each simulation iteration owns its own.
type Stream struct {
	rng   *rand.Rand
	rolls int
}

// NewStream returns a Stream seeded with (seed, index). Streams sharing a seed
// but differing in index are statistically independent.
func NewStream(seed, index uint64) *Stream {
	return &Stream{rng: rand.New(rand.NewPCG(seed, index))}
}

// Real returns a uniform value in [0, 1).
//
// Postcondition: 0 <= return value < 1.
func (s *Stream) Real() float64 {
	s.rolls++
	return s.rng.Float64()
}

// Roll performs a boolean trial that succeeds with probability p.
// p <= 0 always fails and p >= 1 always succeeds; neither consumes a draw.
func (s *Stream) Roll(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.Real() < p
}

// Rolls returns the number of draws consumed from this stream.
func (s *Stream) Rolls() int { return s.rolls }

// StreamSet owns one Stream per index plus a main stream.
//
// Invariant: the main stream and every indexed stream are seeded from the same
// base seed with distinct PCG stream selectors.
type StreamSet struct {
	seed    uint64
	main    *Stream
	streams []*Stream
}

// mainIndex keeps the main stream's selector out of the range used by indexed streams.
const mainIndex = ^uint64(0)

// NewStreamSet creates n indexed streams and a main stream, all derived from seed.
//
// Precondition: n > 0.
func NewStreamSet(seed uint64, n int) *StreamSet {
	if n <= 0 {
		panic(fmt.Sprintf("dice: NewStreamSet called with n=%d", n))
	}
	set := &StreamSet{
		seed:    seed,
		main:    NewStream(seed, mainIndex),
		streams: make([]*Stream, n),
	}
	for i := range set.streams {
		set.streams[i] = NewStream(seed, uint64(i))
	}
	return set
}

// Seed returns the base seed the set was created with.
func (s *StreamSet) Seed() uint64 { return s.seed }

// Main returns the shared uniform stream.
func (s *StreamSet) Main() *Stream { return s.main }

// Stream returns the stream at index i.
//
// Precondition: 0 <= i < Len().
func (s *StreamSet) Stream(i int) *Stream {
	if i < 0 || i >= len(s.streams) {
		panic(fmt.Sprintf("dice: stream index %d out of range [0, %d)", i, len(s.streams)))
	}
	return s.streams[i]
}

// Len returns the number of indexed streams.
func (s *StreamSet) Len() int { return len(s.streams) }

// Rolls returns the total number of draws consumed across every stream in the set.
func (s *StreamSet) Rolls() int {
	total := s.main.Rolls()
	for _, st := range s.streams {
		total += st.Rolls()
	}
	return total
}
