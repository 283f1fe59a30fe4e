package relay

import (
	"context"
	"sync"
)

// Handle is how the server reaches into a live relay connection during
// shutdown: Warn sends a spoken notice to the candidate, Cancel tears the
// connection down.
type Handle struct {
	Cancel func()
	Warn   func(message string) error
}

// Tracker follows every open relay connection so graceful shutdown can warn,
// wait for, and finally cancel in-flight calls.
type Tracker struct {
	mu    sync.Mutex
	conns map[string]*trackedConn
	wg    sync.WaitGroup
}

type trackedConn struct {
	handle Handle
	once   sync.Once
}

func NewTracker() *Tracker {
	return &Tracker{
		conns: make(map[string]*trackedConn),
	}
}

// Register tracks a connection under its call SID. A second registration for
// the same SID supersedes the first.
func (t *Tracker) Register(callSID string, h Handle) (unregister func()) {
	if t == nil {
		return func() {}
	}

	entry := &trackedConn{handle: h}

	t.mu.Lock()
	if t.conns == nil {
		t.conns = make(map[string]*trackedConn)
	}
	old := t.conns[callSID]
	t.conns[callSID] = entry
	t.wg.Add(1)
	t.mu.Unlock()

	if old != nil {
		t.unregister(callSID, old)
	}

	return func() { t.unregister(callSID, entry) }
}

func (t *Tracker) unregister(callSID string, entry *trackedConn) {
	if t == nil || entry == nil {
		return
	}
	entry.once.Do(func() {
		t.mu.Lock()
		if t.conns != nil && t.conns[callSID] == entry {
			delete(t.conns, callSID)
		}
		t.mu.Unlock()
		t.wg.Done()
	})
}

func (t *Tracker) Count() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *Tracker) WarnAll(message string) (sent int) {
	if t == nil {
		return 0
	}

	var warns []func(message string) error
	t.mu.Lock()
	for _, entry := range t.conns {
		if entry == nil || entry.handle.Warn == nil {
			continue
		}
		warns = append(warns, entry.handle.Warn)
	}
	t.mu.Unlock()

	for _, warn := range warns {
		_ = warn(message)
		sent++
	}
	return sent
}

func (t *Tracker) CancelAll() (canceled int) {
	if t == nil {
		return 0
	}

	var cancels []func()
	t.mu.Lock()
	for _, entry := range t.conns {
		if entry == nil || entry.handle.Cancel == nil {
			continue
		}
		cancels = append(cancels, entry.handle.Cancel)
	}
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
		canceled++
	}
	return canceled
}

// Wait blocks until every tracked connection has unregistered or ctx expires.
func (t *Tracker) Wait(ctx context.Context) bool {
	if t == nil {
		return true
	}
	if ctx == nil {
		t.wg.Wait()
		return true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
