package ports

// Metric is an association score between two equal-length vectors.
// Implementations must be safe for concurrent use and must not modify their inputs.
// The result may be NaN for degenerate input; callers keep it.
type Metric interface {
	Name() string
	Score(a, b []float64) float64
}

// MetricRegistry resolves a metric identifier to an implementation
type MetricRegistry interface {
	// Lookup fails with core.ErrInvalidMetric for unknown identifiers
	Lookup(name string) (Metric, error)
	Names() []string
}
