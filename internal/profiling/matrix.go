package profiling

import (
	"fmt"
	"io"
	"math"

	"icrank/domain/dataset"
)

// MatrixSummary profiles a feature matrix before ranking
type MatrixSummary struct {
	NFeatures   int          `json:"n_features"`
	NSamples    int          `json:"n_samples"`
	NValues     int          `json:"n_values"`
	NaNCount    int          `json:"nan_count"`
	NaNFraction float64      `json:"nan_fraction"`
	ZeroRows    int          `json:"zero_rows"`
	Values      Distribution `json:"values"` // over every non-NaN cell; zero value when all are NaN
}

// Summarize computes shape, missingness and the value distribution of m
func Summarize(m *dataset.FeatureMatrix) (MatrixSummary, error) {
	s := MatrixSummary{
		NFeatures: m.NumFeatures(),
		NSamples:  m.NumSamples(),
		NValues:   m.NumFeatures() * m.NumSamples(),
	}

	finite := make([]float64, 0, s.NValues)
	for _, row := range m.Values {
		zero := true
		for _, v := range row {
			if math.IsNaN(v) {
				s.NaNCount++
				zero = false
				continue
			}
			if v != 0 {
				zero = false
			}
			finite = append(finite, v)
		}
		if zero {
			s.ZeroRows++
		}
	}
	if s.NValues > 0 {
		s.NaNFraction = float64(s.NaNCount) / float64(s.NValues)
	}
	if len(finite) == 0 {
		return s, nil
	}

	d, err := NewDistributionAnalyzer().AnalyzeDistribution(finite)
	if err != nil {
		return s, fmt.Errorf("summarize values: %w", err)
	}
	s.Values = d
	return s, nil
}

// Print writes a human-readable summary
func (s MatrixSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "Shape: %d features x %d samples\n", s.NFeatures, s.NSamples)
	fmt.Fprintf(w, "NaN: %d (%.2f%%)\n", s.NaNCount, 100*s.NaNFraction)
	fmt.Fprintf(w, "All-zero features: %d\n", s.ZeroRows)
	if s.Values.Summary.Count == 0 {
		return
	}
	v := s.Values.Summary
	fmt.Fprintf(w, "Min: %.4g\nMedian: %.4g\nMean: %.4g\nMax: %.4g\n", v.Min, v.Median, v.Mean, v.Max)
	fmt.Fprintf(w, "Skewness: %.3f  Kurtosis: %.3f  Outliers: %d\n",
		s.Values.Shape.Skewness, s.Values.Shape.Kurtosis, s.Values.Shape.Outliers)
}
