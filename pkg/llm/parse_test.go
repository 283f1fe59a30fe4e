package llm

import (
	"strings"
	"testing"
)

func TestParseScore(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"7", 7, false},
		{" 9 \n", 9, false},
		{"10", 10, false},
		{"Score: 8", 8, false},
		{"8/10", 8, false},
		{"42", 10, false}, // clamped
		{"0", 1, false},   // clamped to scale floor
		{"no number here", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseScore(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseScore(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseScore(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseScore(%q)=%d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseQuestionList(t *testing.T) {
	reply := `Here are your questions:

1. What is a closure and when would you use one?
2) Explain the difference between let and const declarations.
3 What does the this keyword refer to in an arrow function?
- How does the event loop schedule macrotasks and microtasks?
* Describe prototypal inheritance with an example.
4. short
This line has no marker and should be ignored.
5. What is hoisting?`

	got := ParseQuestionList(reply)
	want := []string{
		"What is a closure and when would you use one?",
		"Explain the difference between let and const declarations.",
		"What does the this keyword refer to in an arrow function?",
		"How does the event loop schedule macrotasks and microtasks?",
		"Describe prototypal inheritance with an example.",
		// "short" dropped: at or below the minimum length.
		"What is hoisting?",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d questions, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("question %d=%q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseQuestionList_CapsAtMax(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 60; i++ {
		b.WriteString("1. What is the meaning of question number lines?\n")
	}
	got := ParseQuestionList(b.String())
	if len(got) != MaxGeneratedQuestions {
		t.Fatalf("len=%d, want cap %d", len(got), MaxGeneratedQuestions)
	}
}

func TestParseQuestionList_EmptyReply(t *testing.T) {
	if got := ParseQuestionList("I could not generate questions."); len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
}
