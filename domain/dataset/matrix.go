package dataset

import (
	"math"
	"sort"

	"icrank/domain/core"
)

// FeatureMatrix is the canonical input for association scoring.
// Rows are features, columns are samples; Values[i][j] is feature i at sample j.
type FeatureMatrix struct {
	Features []string    // row names, unique
	Samples  []string    // column names, unique
	Values   [][]float64 // len(Values) == len(Features), every row len(Samples)
}

// Reference is a named sample-indexed vector (phenotype, ordering, target).
type Reference struct {
	Name    string
	Samples []string
	Values  []float64
}

// NewFeatureMatrix builds a matrix and validates its shape.
func NewFeatureMatrix(features, samples []string, values [][]float64) (*FeatureMatrix, error) {
	m := &FeatureMatrix{Features: features, Samples: samples, Values: values}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewReference builds a reference vector and validates its shape.
func NewReference(name string, samples []string, values []float64) (*Reference, error) {
	r := &Reference{Name: name, Samples: samples, Values: values}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that every row has one value per column and names are unique.
func (m *FeatureMatrix) Validate() error {
	if len(m.Values) != len(m.Features) {
		return core.NewDimensionError("feature matrix", len(m.Values), len(m.Features))
	}
	for i, row := range m.Values {
		if len(row) != len(m.Samples) {
			return core.NewDimensionError("row "+m.Features[i], len(row), len(m.Samples))
		}
	}
	if err := checkUnique("feature", m.Features); err != nil {
		return err
	}
	return checkUnique("sample", m.Samples)
}

// Validate checks that the reference has one value per sample name.
func (r *Reference) Validate() error {
	if len(r.Values) != len(r.Samples) {
		return core.NewDimensionError("reference "+r.Name, len(r.Values), len(r.Samples))
	}
	return checkUnique("reference sample", r.Samples)
}

func checkUnique(axis string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return core.NewDuplicateError(axis, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// NumFeatures returns the row count
func (m *FeatureMatrix) NumFeatures() int { return len(m.Features) }

// NumSamples returns the column count
func (m *FeatureMatrix) NumSamples() int { return len(m.Samples) }

// RowIndex maps feature name to row position.
func (m *FeatureMatrix) RowIndex() map[string]int {
	idx := make(map[string]int, len(m.Features))
	for i, f := range m.Features {
		idx[f] = i
	}
	return idx
}

// SelectRows returns a new matrix holding the given rows in the given order.
// Row slices are shared with m; callers must not write through them.
func (m *FeatureMatrix) SelectRows(rows []int) *FeatureMatrix {
	out := &FeatureMatrix{
		Features: make([]string, len(rows)),
		Samples:  m.Samples,
		Values:   make([][]float64, len(rows)),
	}
	for k, i := range rows {
		out.Features[k] = m.Features[i]
		out.Values[k] = m.Values[i]
	}
	return out
}

// SelectColumns returns a new matrix holding the given columns in the given order.
// Repeated column positions are allowed (bootstrap resampling); repeated names are kept as-is.
func (m *FeatureMatrix) SelectColumns(cols []int) *FeatureMatrix {
	out := &FeatureMatrix{
		Features: m.Features,
		Samples:  make([]string, len(cols)),
		Values:   make([][]float64, len(m.Values)),
	}
	for k, j := range cols {
		out.Samples[k] = m.Samples[j]
	}
	for i, row := range m.Values {
		dst := make([]float64, len(cols))
		for k, j := range cols {
			dst[k] = row[j]
		}
		out.Values[i] = dst
	}
	return out
}

// DropZeroRows removes features whose values are all exactly zero.
// NaN counts as non-zero, so a row mixing zeros and NaN survives.
func (m *FeatureMatrix) DropZeroRows() (*FeatureMatrix, int) {
	keep := make([]int, 0, len(m.Values))
	for i, row := range m.Values {
		for _, v := range row {
			if v != 0 {
				keep = append(keep, i)
				break
			}
		}
	}
	return m.SelectRows(keep), len(m.Values) - len(keep)
}

// Lookup maps sample name to reference value.
func (r *Reference) Lookup() map[string]float64 {
	out := make(map[string]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[s] = r.Values[i]
	}
	return out
}

// SelectSamples returns the reference values at the given positions.
func (r *Reference) SelectSamples(cols []int) []float64 {
	out := make([]float64, len(cols))
	for k, j := range cols {
		out[k] = r.Values[j]
	}
	return out
}

// Align restricts both inputs to their common samples, in the matrix's column order.
// The returned reference is indexed exactly like the returned matrix columns.
func Align(m *FeatureMatrix, r *Reference) (*FeatureMatrix, *Reference, error) {
	lookup := r.Lookup()
	cols := make([]int, 0, len(m.Samples))
	values := make([]float64, 0, len(m.Samples))
	for j, s := range m.Samples {
		if v, ok := lookup[s]; ok {
			cols = append(cols, j)
			values = append(values, v)
		}
	}
	if len(cols) == 0 {
		return nil, nil, core.NewEmptyIntersectionError(len(m.Samples), len(r.Samples))
	}
	aligned := m.SelectColumns(cols)
	return aligned, &Reference{Name: r.Name, Samples: aligned.Samples, Values: values}, nil
}

// SortByReference reorders the columns of an aligned pair by reference value.
// The sort is stable and NaN reference values go last in either direction.
func SortByReference(m *FeatureMatrix, r *Reference, ascending bool) (*FeatureMatrix, *Reference) {
	order := make([]int, len(r.Values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := r.Values[order[a]], r.Values[order[b]]
		if math.IsNaN(va) || math.IsNaN(vb) {
			return !math.IsNaN(va) && math.IsNaN(vb)
		}
		if ascending {
			return va < vb
		}
		return va > vb
	})
	sorted := m.SelectColumns(order)
	return sorted, &Reference{Name: r.Name, Samples: sorted.Samples, Values: r.SelectSamples(order)}
}
