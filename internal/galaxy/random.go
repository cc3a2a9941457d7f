package galaxy

import (
	"math/rand/v2"
)

// RandomSource supplies independent uniform draws in [0,1).
// *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

const goldenRatio64 = 0x9e3779b97f4a7c15

type runtimeSource struct{}

func (runtimeSource) Float64() float64 {
	return rand.Float64()
}

// NewRandomSource returns a non-reproducible source backed by the runtime generator.
func NewRandomSource() RandomSource {
	return runtimeSource{}
}

// NewSeededSource returns a source whose stream is fully determined by seed.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(mix(seed), mix(seed+goldenRatio64)))
}

// SourceFor picks the source matching the seeding mode of p.
func SourceFor(p Parameters) RandomSource {
	if p.Seed != nil {
		return NewSeededSource(*p.Seed)
	}
	return NewRandomSource()
}

// splitmix64 finalizer
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
