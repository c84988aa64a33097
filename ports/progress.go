package ports

// ProgressReporter receives coarse progress for long-running stages.
// Report may be called from multiple goroutines.
type ProgressReporter interface {
	Report(stage string, done, total int)
}
