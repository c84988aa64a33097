package engine

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"icrank/domain/dataset"
	"icrank/ports"
)

// BootstrapFraction is the expected share of distinct items in a
// same-size sample drawn with replacement.
const BootstrapFraction = 0.632

// BootstrapConfig controls margin-of-error estimation
type BootstrapConfig struct {
	NSamplings int
	Confidence float64
}

// BootstrapSampleSize is ceil(0.632 * nColumns).
func BootstrapSampleSize(nColumns int) int {
	return int(math.Ceil(BootstrapFraction * float64(nColumns)))
}

// ZCritical is the one-sided standard normal quantile at confidence.
// A 0.95 confidence gives 1.645, not the two-sided 1.96.
func ZCritical(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(confidence)
}

// Bootstrap estimates a margin of error for each selected feature by
// resampling columns with replacement and rescoring. Row values and reference
// values are subset by the same positions.
//
// ok is false when the stage is skipped: fewer than 2 samplings or a
// per-replicate sample size below 3. Features outside selected get no entry.
func Bootstrap(ctx context.Context, m *dataset.FeatureMatrix, ref []float64, selected []string, metric ports.Metric, rng *rand.Rand, cfg BootstrapConfig, opts Options) (moe map[string]float64, ok bool, err error) {
	log := opts.logger()
	log.Info("[Bootstrap] Bootstrapping to get %v confidence interval", cfg.Confidence)

	sampleSize := BootstrapSampleSize(m.NumSamples())
	if cfg.NSamplings < 2 {
		log.Warn("[Bootstrap] Not bootstrapping because number of sampling (%d) < 2", cfg.NSamplings)
		return nil, false, nil
	}
	if sampleSize < 3 {
		log.Warn("[Bootstrap] Not bootstrapping because 0.632 * number of samples (%d) < 3", sampleSize)
		return nil, false, nil
	}

	idx := m.RowIndex()
	rows := make([]int, 0, len(selected))
	for _, f := range selected {
		if i, found := idx[f]; found {
			rows = append(rows, i)
		}
	}
	sub := m.SelectRows(rows)
	log.Info("[Bootstrap] Bootstrapping %d features with %d samplings of %d columns", len(rows), cfg.NSamplings, sampleSize)

	// Draw every replicate up front so output does not depend on scheduling.
	draws := make([][]int, cfg.NSamplings)
	for r := range draws {
		cols := make([]int, sampleSize)
		for k := range cols {
			cols[k] = rng.Intn(m.NumSamples())
		}
		draws[r] = cols
	}

	// replicates[k][r] is feature k's score in replicate r
	replicates := make([][]float64, len(rows))
	for k := range replicates {
		replicates[k] = make([]float64, cfg.NSamplings)
	}

	var done atomic.Int64
	err = parallelFor(ctx, cfg.NSamplings, opts.workers(), func(r int) error {
		cols := draws[r]
		resampled := sub.SelectColumns(cols)
		refSample := make([]float64, len(cols))
		for k, j := range cols {
			refSample[k] = ref[j]
		}
		scores := make([]float64, len(rows))
		scoreRows(resampled.Values, refSample, metric, scores)
		for k, s := range scores {
			replicates[k][r] = s
		}
		opts.report(StageBootstrap, int(done.Add(1)), cfg.NSamplings)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	z := ZCritical(cfg.Confidence)
	sqrtN := math.Sqrt(float64(cfg.NSamplings))
	moe = make(map[string]float64, len(rows))
	for k, f := range sub.Features {
		moe[f] = z * stat.StdDev(replicates[k], nil) / sqrtN
	}
	return moe, true, nil
}
