package interview

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry() *Registry {
	return NewRegistry(20*time.Minute, testLogger())
}

func mustCreate(t *testing.T, r *Registry, queue []string) Snapshot {
	t.Helper()
	snap, err := r.Create("", "+15550100", queue, 50)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return snap
}

func TestRegistry_CreateGeneratesUniqueSIDs(t *testing.T) {
	r := newTestRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		snap := mustCreate(t, r, []string{"q"})
		if seen[snap.CallSID] {
			t.Fatalf("duplicate generated SID %s", snap.CallSID)
		}
		seen[snap.CallSID] = true
		if snap.Status != StatusDialing {
			t.Fatalf("new session status=%s, want dialing", snap.Status)
		}
	}
}

func TestRegistry_CreateDuplicateSuppliedSID(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Create("CAfixed", "+15550100", nil, 0); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := r.Create("CAfixed", "+15550101", nil, 0)
	if !IsType(err, ErrDuplicateSession) {
		t.Fatalf("err=%v, want duplicate_session", err)
	}
}

func TestRegistry_GetUnknownIsNotFound(t *testing.T) {
	r := newTestRegistry()
	if _, err := r.Get("CAnope"); !IsType(err, ErrNotFound) {
		t.Fatalf("err=%v, want not_found", err)
	}
}

func TestRegistry_TransitionValidation(t *testing.T) {
	r := newTestRegistry()
	snap := mustCreate(t, r, []string{"q"})

	if err := r.Transition(snap.CallSID, StatusWaitingForAnswer); !IsType(err, ErrInvalidTransition) {
		t.Fatalf("dialing -> waiting_for_answer: err=%v, want invalid_transition", err)
	}
	// State must be untouched after a rejected transition.
	got, _ := r.Get(snap.CallSID)
	if got.Status != StatusDialing {
		t.Fatalf("status=%s after rejected transition, want dialing", got.Status)
	}

	if err := r.Transition(snap.CallSID, StatusInProgress); err != nil {
		t.Fatalf("dialing -> in_progress: %v", err)
	}
	if err := r.Transition(snap.CallSID, StatusCompleted); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}
	if err := r.Transition(snap.CallSID, StatusInProgress); !IsType(err, ErrInvalidTransition) {
		t.Fatalf("completed is absorbing: err=%v", err)
	}
}

func TestRegistry_TransitionBumpsUpdatedAt(t *testing.T) {
	r := newTestRegistry()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	r.now = func() time.Time { return current }

	snap := mustCreate(t, r, []string{"q"})
	current = base.Add(5 * time.Second)
	if err := r.Transition(snap.CallSID, StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}
	got, _ := r.Get(snap.CallSID)
	if !got.UpdatedAt.Equal(current) {
		t.Fatalf("UpdatedAt=%v, want %v", got.UpdatedAt, current)
	}
	if !got.ExpiresAt.Equal(base.Add(20 * time.Minute)) {
		t.Fatalf("ExpiresAt=%v, want createdAt+20m", got.ExpiresAt)
	}
}

func TestRegistry_FailRecordsReason(t *testing.T) {
	r := newTestRegistry()
	snap := mustCreate(t, r, []string{"q"})
	if err := r.Fail(snap.CallSID, "provider error"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, _ := r.Get(snap.CallSID)
	if got.Status != StatusFailed || got.FailReason != "provider error" {
		t.Fatalf("status=%s reason=%q", got.Status, got.FailReason)
	}
	if err := r.Fail(snap.CallSID, "again"); !IsType(err, ErrInvalidTransition) {
		t.Fatalf("failing a failed session: err=%v", err)
	}
}

func TestRegistry_ListActiveExcludesTerminal(t *testing.T) {
	r := newTestRegistry()
	a := mustCreate(t, r, []string{"q"})
	b := mustCreate(t, r, []string{"q"})
	if err := r.Fail(b.CallSID, "hangup"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	list := r.ListActive()
	if len(list) != 1 || list[0].CallSID != a.CallSID {
		t.Fatalf("ListActive=%+v, want only %s", list, a.CallSID)
	}
}

func TestRegistry_RemoveOnlyTerminal(t *testing.T) {
	r := newTestRegistry()
	snap := mustCreate(t, r, []string{"q"})
	if err := r.Remove(snap.CallSID); !IsType(err, ErrInvalidTransition) {
		t.Fatalf("removing a live session: err=%v", err)
	}
	if err := r.Fail(snap.CallSID, "hangup"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := r.Remove(snap.CallSID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := r.Remove(snap.CallSID); err != nil {
		t.Fatalf("Remove should be a no-op when absent: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("Len=%d, want 0", r.Len())
	}
}

func TestRegistry_AppendTranscript(t *testing.T) {
	r := newTestRegistry()
	snap := mustCreate(t, r, []string{"q"})

	if err := r.Append(snap.CallSID, RoleAgent, "first question"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, _ := r.Get(snap.CallSID)
	if len(got.Log) != 1 || got.Log[0].Role != RoleAgent || got.Log[0].Text != "first question" {
		t.Fatalf("log=%+v", got.Log)
	}

	if err := r.Fail(snap.CallSID, "hangup"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := r.Append(snap.CallSID, RoleAgent, "too late"); !IsType(err, ErrInvalidTransition) {
		t.Fatalf("append to terminal session: err=%v, want invalid_transition", err)
	}
}

// Mutations on different sessions must proceed in parallel: holding one
// session's lock (via a slow update) must not delay another session.
func TestRegistry_SessionsDoNotBlockEachOther(t *testing.T) {
	r := newTestRegistry()
	slow := mustCreate(t, r, []string{"q"})
	fast := mustCreate(t, r, []string{"q"})

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.update(slow.CallSID, func(s *session) error {
			<-release
			return nil
		})
	}()

	done := make(chan error, 1)
	go func() {
		done <- r.Transition(fast.CallSID, StatusInProgress)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("fast session transition: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session B blocked behind slow session A")
	}
	close(release)
	wg.Wait()
}

func TestRegistry_SweepFailsExpiredAndEvictsStale(t *testing.T) {
	r := newTestRegistry()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	r.now = func() time.Time { return current }

	expired := mustCreate(t, r, []string{"q"})
	healthy := mustCreate(t, r, []string{"q"})

	// 21 minutes against a 20 minute budget.
	failed, evicted := r.sweep(base.Add(21*time.Minute), 2*time.Minute)
	if failed != 2 || evicted != 0 {
		// Both sessions were created at base, so both expire together.
		t.Fatalf("sweep=%d/%d, want 2 failed, 0 evicted", failed, evicted)
	}
	got, _ := r.Get(expired.CallSID)
	if got.Status != StatusFailed || got.FailReason != "timeout" {
		t.Fatalf("expired session: status=%s reason=%q", got.Status, got.FailReason)
	}

	// Terminal sessions are retained for the window, then evicted.
	failed, evicted = r.sweep(base.Add(22*time.Minute), 2*time.Minute)
	if failed != 0 || evicted != 0 {
		t.Fatalf("sweep within retention=%d/%d, want 0/0", failed, evicted)
	}
	failed, evicted = r.sweep(base.Add(30*time.Minute), 2*time.Minute)
	if failed != 0 || evicted != 2 {
		t.Fatalf("sweep past retention=%d/%d, want 0 failed, 2 evicted", failed, evicted)
	}
	if _, err := r.Get(healthy.CallSID); !IsType(err, ErrNotFound) {
		t.Fatalf("evicted session should be gone, err=%v", err)
	}
}
