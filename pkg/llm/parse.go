package llm

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinGeneratedQuestions is the smallest acceptable question bank; below
	// this the generation attempt is treated as failed.
	MinGeneratedQuestions = 20

	// MaxGeneratedQuestions caps the bank regardless of model verbosity.
	MaxGeneratedQuestions = 50

	// minQuestionLength filters out fragments and stray list markers.
	minQuestionLength = 10
)

// ParseScore extracts a 1-10 score from a model reply, tolerating surrounding
// prose. The result is clamped into [1,10].
func ParseScore(text string) (int, error) {
	digits := strings.Builder{}
	for _, r := range strings.TrimSpace(text) {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0, fmt.Errorf("no digits in grader reply %q", truncate(text, 80))
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, fmt.Errorf("parse grader reply %q: %w", truncate(text, 80), err)
	}
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return n, nil
}

// ParseQuestionList extracts questions from a numbered or bulleted list reply.
// Numbering and bullet markers are stripped; lines at or below
// minQuestionLength are discarded; the result is capped at
// MaxGeneratedQuestions.
func ParseQuestionList(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !isListItem(line) {
			continue
		}
		q := stripListMarker(line)
		if len(q) <= minQuestionLength {
			continue
		}
		out = append(out, q)
		if len(out) == MaxGeneratedQuestions {
			break
		}
	}
	return out
}

func isListItem(line string) bool {
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		return true
	}
	r := rune(line[0])
	return r >= '0' && r <= '9'
}

func stripListMarker(line string) string {
	s := strings.TrimSpace(line)
	// Leading numbering: "12." or "12)" or bare "12 ".
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 {
		s = s[i:]
		s = strings.TrimLeft(s, ".)")
	}
	s = strings.TrimLeft(s, "-* ")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
