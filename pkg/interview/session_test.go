package interview

import "testing"

func TestStatus_TerminalStatesAbsorb(t *testing.T) {
	all := []Status{
		StatusDialing, StatusInProgress, StatusWaitingForAnswer,
		StatusWaitingForOperator, StatusCompleted, StatusFailed,
	}
	for _, from := range []Status{StatusCompleted, StatusFailed} {
		for _, to := range all {
			if from.canTransition(to) {
				t.Fatalf("%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestStatus_FailedReachableFromAnyLiveState(t *testing.T) {
	for _, from := range []Status{StatusDialing, StatusInProgress, StatusWaitingForAnswer, StatusWaitingForOperator} {
		if !from.canTransition(StatusFailed) {
			t.Fatalf("%s -> failed should be allowed", from)
		}
	}
}

func TestStatus_ForwardOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusDialing, StatusInProgress, true},
		{StatusDialing, StatusWaitingForAnswer, false}, // no skipping
		{StatusInProgress, StatusWaitingForAnswer, true},
		{StatusWaitingForAnswer, StatusInProgress, true},
		{StatusWaitingForAnswer, StatusDialing, false},
		{StatusInProgress, StatusWaitingForOperator, true},
		{StatusWaitingForOperator, StatusInProgress, true},
		{StatusWaitingForOperator, StatusWaitingForAnswer, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusWaitingForAnswer, StatusCompleted, true},
		{StatusInProgress, StatusDialing, false},
	}
	for _, tc := range cases {
		if got := tc.from.canTransition(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSnapshot_DeepCopies(t *testing.T) {
	s := &session{
		callSID: "CAtest",
		status:  StatusInProgress,
		queue:   []string{"q1", "q2"},
		scores:  []int{7},
		log:     []Entry{{Role: RoleCandidate, Text: "hi"}},
	}
	snap := s.snapshot()
	snap.Scores[0] = 0
	snap.Log[0].Text = "mutated"
	if s.scores[0] != 7 || s.log[0].Text != "hi" {
		t.Fatalf("snapshot must not alias session state")
	}
}

func TestSummary_LastUserMessage(t *testing.T) {
	s := &session{
		callSID: "CAtest",
		status:  StatusWaitingForOperator,
		log: []Entry{
			{Role: RoleAgent, Text: "question one"},
			{Role: RoleCandidate, Text: "first answer"},
			{Role: RoleAgent, Text: "question two"},
			{Role: RoleCandidate, Text: "second answer"},
			{Role: RoleSystem, Text: "note"},
		},
	}
	sum := s.summary()
	if sum.LastUserMessage != "second answer" {
		t.Fatalf("LastUserMessage=%q, want most recent candidate entry", sum.LastUserMessage)
	}
	if !sum.WaitingForResponse {
		t.Fatalf("WaitingForResponse should reflect waiting_for_operator status")
	}
}
