package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Pearson is the linear correlation coefficient.
// NaN with fewer than 2 complete pairs, 0 when either vector is constant.
type Pearson struct{}

// NewPearson creates a Pearson metric
func NewPearson() *Pearson { return &Pearson{} }

// Name returns the metric identifier
func (p *Pearson) Name() string { return "pearson" }

// Score computes r(a, b) over complete pairs
func (p *Pearson) Score(a, b []float64) float64 {
	x, y := completePairs(a, b)
	return pearson(x, y)
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	// Clamp to [-1, 1] due to floating point precision
	return math.Max(-1, math.Min(1, r))
}

// Spearman is the rank correlation coefficient with tied ranks averaged
type Spearman struct{}

// NewSpearman creates a Spearman metric
func NewSpearman() *Spearman { return &Spearman{} }

// Name returns the metric identifier
func (s *Spearman) Name() string { return "spearman" }

// Score computes rho(a, b) over complete pairs
func (s *Spearman) Score(a, b []float64) float64 {
	x, y := completePairs(a, b)
	return pearson(rankData(x), rankData(y))
}

// rankData assigns 1-based ranks, handling ties by averaging
func rankData(data []float64) []float64 {
	n := len(data)
	ranks := make([]float64, n)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return data[order[i]] < data[order[j]]
	})

	i := 0
	for i < n {
		j := i
		for j < n-1 && data[order[j+1]] == data[order[i]] {
			j++
		}
		avgRank := float64(i+j)/2.0 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avgRank
		}
		i = j + 1
	}

	return ranks
}
