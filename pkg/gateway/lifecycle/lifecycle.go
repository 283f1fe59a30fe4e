// Package lifecycle tracks whether the orchestrator is draining, so the
// readiness probe and the call relay can refuse new work during shutdown.
package lifecycle

import "sync/atomic"

// Lifecycle holds the shared draining flag. The zero value is ready to use;
// a nil receiver reads as not draining.
type Lifecycle struct {
	draining atomic.Bool
}

func (l *Lifecycle) SetDraining(draining bool) {
	if l == nil {
		return
	}
	l.draining.Store(draining)
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}
