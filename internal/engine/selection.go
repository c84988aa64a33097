package engine

import (
	"math"
	"sort"

	"icrank/domain/stats"
)

// Select applies the shared top/bottom policy to a set of scored rows.
//
// n >= 1 picks the floor(n) lowest and floor(n) highest scores (every row when
// there are fewer than 2*floor(n)). 0 < n < 1 is a quantile: rows scoring at or
// above the n-quantile, plus those at or below the (1-n)-quantile. NaN scores
// rank lowest for counting and never pass a quantile threshold.
//
// Names are returned in ascending score order. rows is not modified.
func Select(rows []stats.ScoreRow, n float64) []string {
	ranked := make([]stats.ScoreRow, len(rows))
	copy(ranked, rows)
	stats.SortRows(ranked, true)

	var picked []stats.ScoreRow
	if n >= 1 {
		k := int(math.Floor(n))
		if len(ranked) <= 2*k {
			picked = ranked
		} else {
			picked = append(append(picked, ranked[:k]...), ranked[len(ranked)-k:]...)
		}
	} else if n > 0 {
		scores := make([]float64, len(ranked))
		for i, r := range ranked {
			scores[i] = r.Score
		}
		upper := Quantile(scores, n)
		lower := Quantile(scores, 1-n)
		for _, r := range ranked {
			if r.Score >= upper || r.Score <= lower {
				picked = append(picked, r)
			}
		}
	}

	names := make([]string, len(picked))
	for i, r := range picked {
		names[i] = r.Feature
	}
	return names
}

// Quantile returns the q-quantile of the non-NaN values with linear
// interpolation between closest ranks: position q*(m-1) in sorted order.
// It returns NaN when values holds no non-NaN entry.
func Quantile(values []float64, q float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi > len(sorted)-1 {
		hi = len(sorted) - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
