// Package engine implements the association scoring stages: row-wise scoring
// against a reference, bootstrap margins of error, permutation p-values,
// Benjamini-Hochberg correction and the shared top/bottom selection policy.
//
// Every stage scores through BatchScore or scoreRows so NaN and empty-input
// handling lives in one place. Random draws are taken serially from the
// caller's *rand.Rand before work fans out, so results do not depend on the
// worker count.
package engine
