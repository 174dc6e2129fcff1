// Package rng provides the random source used by the simulation.
//
// Every stochastic component (price model, book synthesizer, event
// generator) draws from a Source passed in by its owner, so a session
// seeded the same way replays the same tape.
package rng

import (
	"math"
	"math/rand"
)

// Source is the minimal random interface the simulation needs.
// *math/rand.Rand satisfies it.
type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// Intn returns a value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// New returns a deterministic Source for the given seed.
func New(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Norm draws a standard-normal value from src via the Box-Muller
// transform. Two uniform draws are consumed per call.
func Norm(src Source) float64 {
	var u, v float64
	for u == 0 {
		u = src.Float64()
	}
	for v == 0 {
		v = src.Float64()
	}
	return boxMuller(u, v)
}

func boxMuller(u, v float64) float64 {
	return math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
}

// Range returns a uniform value in [min, max).
func Range(src Source, min, max float64) float64 {
	return min + src.Float64()*(max-min)
}
