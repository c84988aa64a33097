package engine

import (
	"runtime"

	"icrank/internal"
	"icrank/ports"
)

// Options carries the execution knobs shared by every stage.
type Options struct {
	Workers  int // <= 0 means runtime.NumCPU()
	Logger   *internal.Logger
	Progress ports.ProgressReporter
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) logger() *internal.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return internal.DefaultLogger
}

func (o Options) report(stage string, done, total int) {
	if o.Progress != nil {
		o.Progress.Report(stage, done, total)
	}
}

// Stage names used for progress and RNG streams
const (
	StageScore       = "score"
	StageBootstrap   = "bootstrap"
	StagePermutation = "permutation"
)
