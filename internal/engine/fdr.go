package engine

import (
	"math"
	"sort"
)

// BenjaminiHochberg converts p-values to step-up FDR q-values.
// q at ascending rank i is min over ranks j >= i of p[j]*n/j, clipped to [0, 1].
// The output is in the input order.
func BenjaminiHochberg(p []float64) []float64 {
	n := len(p)
	q := make([]float64, n)
	if n == 0 {
		return q
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })

	running := math.Inf(1)
	for rank := n; rank >= 1; rank-- {
		i := order[rank-1]
		adj := p[i] * float64(n) / float64(rank)
		if adj < running {
			running = adj
		}
		q[i] = math.Max(0, math.Min(1, running))
	}
	return q
}
