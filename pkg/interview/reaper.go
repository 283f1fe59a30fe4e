package interview

import (
	"log/slog"
	"time"
)

// Reaper is the background sweep that guarantees termination: sessions past
// their time budget are force-failed, and terminal sessions past the retention
// window are evicted so the registry cannot grow without bound.
type Reaper struct {
	reg       *Registry
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger

	stop chan struct{}
	done chan struct{}
}

func NewReaper(reg *Registry, interval, retention time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{
		reg:       reg,
		interval:  interval,
		retention: retention,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop. It never blocks foreground operations: each
// sweep takes per-session locks one at a time.
func (p *Reaper) Start() {
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Sweep(time.Now())
			case <-p.stop:
				return
			}
		}
	}()
}

// Sweep runs one pass at the given instant. Exposed so tests can drive the
// reaper deterministically.
func (p *Reaper) Sweep(now time.Time) (failed, evicted int) {
	failed, evicted = p.reg.sweep(now, p.retention)
	if failed > 0 || evicted > 0 {
		p.logger.Info("reaper sweep", "failed", failed, "evicted", evicted)
	}
	return failed, evicted
}

// Stop terminates the sweep loop and waits for it to exit.
func (p *Reaper) Stop() {
	close(p.stop)
	<-p.done
}
