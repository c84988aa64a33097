package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrInvalidMetric     = errors.New("invalid metric")
	ErrEmptyIntersection = errors.New("features and reference have no intersecting columns")
	ErrInvalidConfig     = errors.New("invalid configuration")

	// Input shape errors
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrDuplicateName     = errors.New("duplicate name")
	ErrMalformedInput    = errors.New("malformed input")
)

// Error constructors with context
func NewInvalidMetricError(name string, known []string) error {
	return fmt.Errorf("%w: %q (registered: %v)", ErrInvalidMetric, name, known)
}

func NewEmptyIntersectionError(nFeatureColumns, nReference int) error {
	return fmt.Errorf("%w: having %d and %d columns respectively", ErrEmptyIntersection, nFeatureColumns, nReference)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidConfig, field, reason)
}

func NewDimensionError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has %d values, expected %d", ErrDimensionMismatch, what, got, want)
}

func NewDuplicateError(axis, name string) error {
	return fmt.Errorf("%w: %s %q appears more than once", ErrDuplicateName, axis, name)
}

// IsConfigurationError reports whether err is fatal for a ranking call.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidMetric) ||
		errors.Is(err, ErrEmptyIntersection) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsInputError reports whether err stems from a malformed matrix or reference.
func IsInputError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrMalformedInput)
}
