package interview

import (
	"testing"
	"time"
)

func TestReaper_SweepFailsOverdueSession(t *testing.T) {
	r := newTestRegistry()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	snap := mustCreate(t, r, []string{"q"})
	if err := r.Transition(snap.CallSID, StatusInProgress); err != nil {
		t.Fatalf("transition: %v", err)
	}

	reaper := NewReaper(r, 30*time.Second, 2*time.Minute, testLogger())

	// One minute before the budget: untouched.
	failed, _ := reaper.Sweep(base.Add(19 * time.Minute))
	if failed != 0 {
		t.Fatalf("premature sweep failed %d sessions", failed)
	}

	// Created 21 minutes ago against the 20 minute budget.
	failed, _ = reaper.Sweep(base.Add(21 * time.Minute))
	if failed != 1 {
		t.Fatalf("failed=%d, want 1", failed)
	}
	got, _ := r.Get(snap.CallSID)
	if got.Status != StatusFailed || got.FailReason != "timeout" {
		t.Fatalf("status=%s reason=%q, want failed/timeout", got.Status, got.FailReason)
	}
}

func TestReaper_StartStop(t *testing.T) {
	r := newTestRegistry()
	reaper := NewReaper(r, 10*time.Millisecond, time.Minute, testLogger())
	reaper.Start()
	time.Sleep(30 * time.Millisecond)
	reaper.Stop() // must not hang or panic
}

func TestBuildQueue(t *testing.T) {
	cases := []struct {
		name      string
		questions []string
		n         int
		wantLen   int
		wantFirst string
	}{
		{"supplied truncated", []string{"a", "b", "c"}, 2, 2, "a"},
		{"supplied shorter than n", []string{"a"}, 10, 1, "a"},
		{"empty falls back to default bank", nil, 10, 10, DefaultQuestions[0]},
		{"zero n defaults to ten", nil, 0, 10, DefaultQuestions[0]},
		{"blank entries dropped", []string{"", "  ", "a", "b"}, 10, 2, "a"},
		{"all blank falls back to default bank", []string{"", "   "}, 10, 10, DefaultQuestions[0]},
	}
	for _, tc := range cases {
		q := BuildQueue(tc.questions, tc.n)
		if len(q) != tc.wantLen {
			t.Fatalf("%s: len=%d, want %d", tc.name, len(q), tc.wantLen)
		}
		if q[0] != tc.wantFirst {
			t.Fatalf("%s: first=%q, want %q", tc.name, q[0], tc.wantFirst)
		}
	}
}
