package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic RNG stream for one stage of a run. Bootstrap and
	// permutation stages draw from distinct streams so they can run concurrently and
	// still reproduce a sequential run. The stream depends only on stageName and baseSeed.
	Stream(ctx context.Context, stageName string, baseSeed int64) (*rand.Rand, error)
}
