package sample

import (
	"golang.org/x/exp/rand"

	"hybridtest/domain/core"
	"hybridtest/ports"
)

// RNGAdapter derives independent random streams from string keys, so every
// toy gets a stream determined only by run, stage, toy key, and base seed.
type RNGAdapter struct{}

// NewRNGAdapter creates the default stream factory
func NewRNGAdapter() *RNGAdapter {
	return &RNGAdapter{}
}

// SeededStream returns a stream seeded directly
func (a *RNGAdapter) SeededStream(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Stream returns a stream whose seed mixes the run, stage, and key hashes
// with the base seed
func (a *RNGAdapter) Stream(runID core.RunID, stage, key string, baseSeed uint64) *rand.Rand {
	seed := baseSeed
	seed = seed*31 + hashString(string(runID))
	seed = seed*31 + hashString(stage)
	seed = seed*31 + hashString(key)
	return rand.New(rand.NewSource(seed))
}

// djb2
func hashString(s string) uint64 {
	h := uint64(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint64(s[i])
	}
	return h
}

var _ ports.RNGPort = (*RNGAdapter)(nil)
