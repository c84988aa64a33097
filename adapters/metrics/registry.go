package metrics

import (
	"sort"
	"sync"

	"icrank/domain/core"
	"icrank/ports"
)

// InformationCoefficientName is the identifier of the default metric.
const InformationCoefficientName = "information_coef"

// Registry maps metric identifiers to implementations
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]ports.Metric
}

// NewRegistry creates a registry holding the given metrics
func NewRegistry(ms ...ports.Metric) *Registry {
	r := &Registry{metrics: make(map[string]ports.Metric, len(ms))}
	for _, m := range ms {
		r.Register(m)
	}
	return r
}

// DefaultRegistry returns every built-in metric.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewInformationCoefficient(),
		NewPearson(),
		NewSpearman(),
	)
}

// Register adds or replaces a metric under its own name
func (r *Registry) Register(m ports.Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[m.Name()] = m
}

// Lookup resolves a metric by identifier
func (r *Registry) Lookup(name string) (ports.Metric, error) {
	r.mu.RLock()
	m, ok := r.metrics[name]
	r.mu.RUnlock()
	if !ok {
		return nil, core.NewInvalidMetricError(name, r.Names())
	}
	return m, nil
}

// Names returns registered identifiers in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.metrics))
	for n := range r.metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Func adapts a plain function to ports.Metric.
type Func struct {
	name string
	fn   func(a, b []float64) float64
}

// FromFunc wraps fn as a metric called name
func FromFunc(name string, fn func(a, b []float64) float64) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Name() string                 { return f.name }
func (f *Func) Score(a, b []float64) float64 { return f.fn(a, b) }
