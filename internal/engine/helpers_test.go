package engine

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"icrank/adapters/metrics"
	"icrank/domain/dataset"
	"icrank/internal"
)

func quietOptions(workers int) Options {
	return Options{Workers: workers, Logger: internal.NewDiscardLogger()}
}

// randomMatrix builds nFeatures x nSamples uniform values plus a reference.
func randomMatrix(t *testing.T, seed int64, nFeatures, nSamples int) (*dataset.FeatureMatrix, []float64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	features := make([]string, nFeatures)
	values := make([][]float64, nFeatures)
	for i := range features {
		features[i] = fmt.Sprintf("gene_%02d", i)
		row := make([]float64, nSamples)
		for j := range row {
			row[j] = rng.Float64()
		}
		values[i] = row
	}
	samples := make([]string, nSamples)
	ref := make([]float64, nSamples)
	for j := range samples {
		samples[j] = fmt.Sprintf("s%02d", j)
		ref[j] = rng.Float64()
	}
	m, err := dataset.NewFeatureMatrix(features, samples, values)
	require.NoError(t, err)
	return m, ref
}

var pearson = metrics.NewPearson()
