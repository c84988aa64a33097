package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"icrank/domain/dataset"
)

// ExpressionGeneratorConfig configures the synthetic feature matrix generator
type ExpressionGeneratorConfig struct {
	FeatureCount    int     `json:"feature_count"`
	SampleCount     int     `json:"sample_count"`
	PositiveSignals int     `json:"positive_signals"` // features tracking the reference
	NegativeSignals int     `json:"negative_signals"` // features tracking its negation
	NoiseLevel      float64 `json:"noise_level"`      // sd of noise added to signal features
	ZeroRows        int     `json:"zero_rows"`        // all-zero features appended at the end
	MissingRate     float64 `json:"missing_rate"`     // fraction of NaN cells in noise features
	Seed            int64   `json:"seed"`
}

// DefaultExpressionConfig returns sensible defaults for demo data
func DefaultExpressionConfig() ExpressionGeneratorConfig {
	return ExpressionGeneratorConfig{
		FeatureCount:    200,
		SampleCount:     40,
		PositiveSignals: 5,
		NegativeSignals: 5,
		NoiseLevel:      0.3,
		ZeroRows:        2,
		MissingRate:     0.01,
		Seed:            42,
	}
}

// ExpressionGenerator generates a features x samples matrix with a few
// features planted to follow a reference phenotype.
type ExpressionGenerator struct {
	config ExpressionGeneratorConfig
	rng    *rand.Rand
}

// NewExpressionGenerator creates a new generator
func NewExpressionGenerator(config ExpressionGeneratorConfig) *ExpressionGenerator {
	return &ExpressionGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// FeatureName names row i
func FeatureName(i int) string { return fmt.Sprintf("feature_%04d", i) }

// SampleName names column j
func SampleName(j int) string { return fmt.Sprintf("sample_%03d", j) }

// Generate returns the matrix and a reference named "phenotype".
// Rows are positive signals first, then negative signals, then noise, then zero rows.
func (g *ExpressionGenerator) Generate() (*dataset.FeatureMatrix, *dataset.Reference, error) {
	c := g.config
	if c.SampleCount < 1 {
		return nil, nil, fmt.Errorf("sample count must be positive, got %d", c.SampleCount)
	}
	if c.PositiveSignals+c.NegativeSignals > c.FeatureCount {
		return nil, nil, fmt.Errorf("%d signal features exceed feature count %d",
			c.PositiveSignals+c.NegativeSignals, c.FeatureCount)
	}

	samples := make([]string, c.SampleCount)
	ref := make([]float64, c.SampleCount)
	for j := range samples {
		samples[j] = SampleName(j)
		ref[j] = g.rng.NormFloat64()
	}

	total := c.FeatureCount + c.ZeroRows
	features := make([]string, total)
	values := make([][]float64, total)
	for i := 0; i < total; i++ {
		features[i] = FeatureName(i)
		row := make([]float64, c.SampleCount)
		switch {
		case i < c.PositiveSignals:
			g.fillSignal(row, ref, 1)
		case i < c.PositiveSignals+c.NegativeSignals:
			g.fillSignal(row, ref, -1)
		case i < c.FeatureCount:
			g.fillNoise(row)
		}
		values[i] = row
	}

	m, err := dataset.NewFeatureMatrix(features, samples, values)
	if err != nil {
		return nil, nil, err
	}
	r, err := dataset.NewReference("phenotype", append([]string(nil), samples...), ref)
	if err != nil {
		return nil, nil, err
	}
	return m, r, nil
}

func (g *ExpressionGenerator) fillSignal(row, ref []float64, sign float64) {
	for j := range row {
		row[j] = sign*ref[j] + g.config.NoiseLevel*g.rng.NormFloat64()
	}
}

func (g *ExpressionGenerator) fillNoise(row []float64) {
	for j := range row {
		if g.rng.Float64() < g.config.MissingRate {
			row[j] = math.NaN()
			continue
		}
		row[j] = g.rng.NormFloat64()
	}
}
