package app

import (
	"sync"

	"icrank/internal"
)

// LogProgress reports stage progress through the logger at roughly every
// tenth of a stage, plus completion.
type LogProgress struct {
	logger *internal.Logger
	mu     sync.Mutex
	last   map[string]int
}

// NewLogProgress creates a progress reporter writing Debug lines.
func NewLogProgress(logger *internal.Logger) *LogProgress {
	return &LogProgress{logger: logger, last: make(map[string]int)}
}

// Report implements ports.ProgressReporter.
func (p *LogProgress) Report(stage string, done, total int) {
	if total <= 0 {
		return
	}
	decile := done * 10 / total
	p.mu.Lock()
	if decile <= p.last[stage] && done != total {
		p.mu.Unlock()
		return
	}
	p.last[stage] = decile
	if done == total {
		delete(p.last, stage)
	}
	p.mu.Unlock()
	p.logger.Debug("[Progress] %s %d/%d", stage, done, total)
}
