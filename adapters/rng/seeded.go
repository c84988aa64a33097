package rng

import (
	"context"
	"math/rand"
)

// SeededAdapter implements ports.RNGPort with math/rand sources.
// Every call returns a fresh generator; nothing is shared between calls.
type SeededAdapter struct{}

// NewSeededAdapter creates an RNG adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// Stream derives a per-stage seed by hashing the stage name into baseSeed
func (a *SeededAdapter) Stream(ctx context.Context, stageName string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := baseSeed
	if stageName != "" {
		seed = int64(hashString(stageName)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
