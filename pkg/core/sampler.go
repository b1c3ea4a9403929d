package core

import "math/rand"

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// FixedSampler always returns the same values, for exact pixel assertions in tests
type FixedSampler struct {
	Value Vec2
}

// Get1D returns the fixed X value
func (f *FixedSampler) Get1D() float64 {
	return f.Value.X
}

// Get2D returns the fixed value pair
func (f *FixedSampler) Get2D() Vec2 {
	return f.Value
}
