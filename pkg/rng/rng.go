// Package rng provides the single seeded random source threaded through
// a Simulation, per SPEC_FULL.md §9: every random choice (instruction
// payload bytes, the random load balancer) draws from one Source so two
// runs with the same seed produce identical traces.
package rng

import "math/rand"

// Source wraps math/rand.Rand behind the narrow surface the simulation
// actually needs, so callers cannot accidentally reach for the global
// (non-deterministic) math/rand functions.
type Source struct {
	r *rand.Rand
}

// New builds a Source seeded deterministically.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0,n).
func (s *Source) Intn(n int) int { return s.r.Intn(n) }

// Bytes fills and returns n pseudo-random bytes.
func (s *Source) Bytes(n int) []byte {
	b := make([]byte, n)
	s.r.Read(b)
	return b
}

// Float64 returns a pseudo-random float in [0,1).
func (s *Source) Float64() float64 { return s.r.Float64() }
