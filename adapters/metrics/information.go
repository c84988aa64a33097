package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	defaultGrids = 25
	// Bandwidths shrink with |r| so strongly correlated pairs get a sharper joint density.
	bandwidthShrink = 0.75
)

// InformationCoefficient is the signed information coefficient
//
//	IC = sign(r) * sqrt(1 - exp(-2 * MI))
//
// where MI is the mutual information of a Gaussian kernel density estimate of the
// joint distribution on a grids x grids lattice and r is the Pearson correlation.
// IC lies in [-1, 1]. It returns NaN with fewer than 3 complete pairs and 0 when
// either vector is constant.
type InformationCoefficient struct {
	grids int
}

// NewInformationCoefficient creates the metric with a 25x25 density grid
func NewInformationCoefficient() *InformationCoefficient {
	return &InformationCoefficient{grids: defaultGrids}
}

// Name returns the metric identifier
func (m *InformationCoefficient) Name() string {
	return InformationCoefficientName
}

// Score computes IC(a, b), ignoring positions where either value is NaN
func (m *InformationCoefficient) Score(a, b []float64) float64 {
	x, y := completePairs(a, b)
	n := len(x)
	if n < 3 {
		return math.NaN()
	}

	sdX := stat.StdDev(x, nil)
	sdY := stat.StdDev(y, nil)
	if sdX == 0 || sdY == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if r == 0 || math.IsNaN(r) {
		return 0
	}

	shrink := 1 - bandwidthShrink*math.Abs(r)
	bwX := silverman(sdX, n) * shrink
	bwY := silverman(sdY, n) * shrink

	minX, maxX := floats.Min(x), floats.Max(x)
	minY, maxY := floats.Min(y), floats.Max(y)
	kx := kernelWeights(lattice(minX, maxX, m.grids), x, bwX)
	ky := kernelWeights(lattice(minY, maxY, m.grids), y, bwY)

	g := m.grids
	pxy := make([]float64, g*g)
	total := 0.0
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			d := floats.Dot(kx[i], ky[j])
			pxy[i*g+j] = d
			total += d
		}
	}
	if total == 0 {
		return 0
	}

	dx := (maxX - minX) / float64(g-1)
	dy := (maxY - minY) / float64(g-1)
	floats.Scale(1/(total*dx*dy), pxy)

	px := make([]float64, g)
	py := make([]float64, g)
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			p := pxy[i*g+j]
			px[i] += p * dy
			py[j] += p * dx
		}
	}

	mi := 0.0
	for i := 0; i < g; i++ {
		for j := 0; j < g; j++ {
			p := pxy[i*g+j]
			if p > 0 && px[i] > 0 && py[j] > 0 {
				mi += p * math.Log(p/(px[i]*py[j]))
			}
		}
	}
	mi *= dx * dy
	if mi < 0 {
		mi = 0
	}

	return math.Copysign(math.Sqrt(1-math.Exp(-2*mi)), r)
}

// silverman is the normal-reference rule-of-thumb bandwidth.
func silverman(sd float64, n int) float64 {
	return 1.06 * sd * math.Pow(float64(n), -0.2)
}

func lattice(lo, hi float64, n int) []float64 {
	return floats.Span(make([]float64, n), lo, hi)
}

// kernelWeights returns w[g][k] = phi((grid[g] - data[k]) / bw).
// The normalizing constant is dropped because the density is renormalized.
func kernelWeights(grid, data []float64, bw float64) [][]float64 {
	w := make([][]float64, len(grid))
	for g, c := range grid {
		row := make([]float64, len(data))
		for k, v := range data {
			row[k] = distuv.UnitNormal.Prob((c - v) / bw)
		}
		w[g] = row
	}
	return w
}

// completePairs drops positions where either vector is NaN.
func completePairs(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	x := make([]float64, 0, n)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}
