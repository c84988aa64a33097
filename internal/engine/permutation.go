package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"icrank/domain/core"
	"icrank/domain/dataset"
	"icrank/domain/stats"
	"icrank/ports"
)

// PermutationResult holds per-feature p-values in matrix row order.
type PermutationResult struct {
	LocalP  []float64
	GlobalP []float64
	// Null[i][p] is feature i scored against permutation p of the reference.
	Null [][]float64
}

// PermutationTest shuffles the reference values nPerms times, rescoring every
// feature each time, and derives p-values from the null scores.
//
// Local p for feature i counts its own null scores beyond observed[i] over
// nPerms. Global p pools all features' nulls over nPerms*nFeatures. Zero counts
// are floored at one over the denominator. A NaN observed score gets p = 1.
// observed is indexed like m's rows.
func PermutationTest(ctx context.Context, m *dataset.FeatureMatrix, ref []float64, observed []float64, metric ports.Metric, nPerms int, direction stats.Direction, rng *rand.Rand, opts Options) (*PermutationResult, error) {
	if nPerms < 1 {
		return nil, core.NewConfigError("n_perms", fmt.Sprintf("must be >= 1, got %d", nPerms))
	}
	log := opts.logger()
	log.Info("[Permutation] Performing permutation test with %d permutations", nPerms)

	nFeatures := m.NumFeatures()
	res := &PermutationResult{
		LocalP:  make([]float64, nFeatures),
		GlobalP: make([]float64, nFeatures),
		Null:    make([][]float64, nFeatures),
	}
	if nFeatures == 0 {
		return res, nil
	}
	for i := range res.Null {
		res.Null[i] = make([]float64, nPerms)
	}

	// Successive in-place shuffles of one working copy, snapshotted per permutation.
	shuffled := make([]float64, len(ref))
	copy(shuffled, ref)
	perms := make([][]float64, nPerms)
	for p := range perms {
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		perms[p] = append([]float64(nil), shuffled...)
	}

	var done atomic.Int64
	err := parallelFor(ctx, nPerms, opts.workers(), func(p int) error {
		scores := make([]float64, nFeatures)
		scoreRows(m.Values, perms[p], metric, scores)
		for i, s := range scores {
			res.Null[i][p] = s
		}
		opts.report(StagePermutation, int(done.Add(1)), nPerms)
		return nil
	})
	if err != nil {
		return nil, err
	}

	pooled := make([]float64, 0, nFeatures*nPerms)
	for _, row := range res.Null {
		for _, s := range row {
			if !math.IsNaN(s) {
				pooled = append(pooled, s)
			}
		}
	}
	sort.Float64s(pooled)

	localDenom := float64(nPerms)
	globalDenom := float64(nPerms) * float64(nFeatures)
	for i, obs := range observed {
		if math.IsNaN(obs) {
			res.LocalP[i], res.GlobalP[i] = 1, 1
			continue
		}
		local := 0
		for _, s := range res.Null[i] {
			if direction.Beyond(s, obs) {
				local++
			}
		}
		res.LocalP[i] = floorP(float64(local), localDenom)
		res.GlobalP[i] = floorP(float64(countBeyond(pooled, obs, direction)), globalDenom)
	}
	return res, nil
}

// countBeyond counts sorted values strictly more extreme than obs.
func countBeyond(sorted []float64, obs float64, direction stats.Direction) int {
	if direction == stats.LessIsBetter {
		return sort.Search(len(sorted), func(i int) bool { return sorted[i] >= obs })
	}
	return len(sorted) - sort.Search(len(sorted), func(i int) bool { return sorted[i] > obs })
}

// floorP never reports exact-zero significance.
func floorP(count, denom float64) float64 {
	if count == 0 {
		return 1 / denom
	}
	return count / denom
}
