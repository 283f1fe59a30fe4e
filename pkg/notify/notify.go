// Package notify reports interview outcomes to whoever is watching the
// pipeline. The default implementation logs; a deployment can swap in email,
// SMS, or a webhook without touching the orchestrator.
package notify

import (
	"context"
	"log/slog"

	"github.com/vango-go/callscreen/pkg/interview"
)

// Outcome classifies how an interview ended.
type Outcome string

const (
	OutcomeSelected   Outcome = "selected"
	OutcomeRejected   Outcome = "rejected"
	OutcomeIncomplete Outcome = "incomplete"
)

// Notifier receives the final disposition of an interview.
type Notifier interface {
	InterviewFinished(ctx context.Context, snap interview.Snapshot, outcome Outcome)
}

// Logger is the default Notifier. It writes one structured line per outcome.
type Logger struct {
	Log *slog.Logger
}

func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{Log: log}
}

func (l *Logger) InterviewFinished(ctx context.Context, snap interview.Snapshot, outcome Outcome) {
	card := snap.Scorecard()
	l.Log.LogAttrs(ctx, slog.LevelInfo, "interview finished",
		slog.String("call_sid", snap.CallSID),
		slog.String("phone_number", snap.PhoneNumber),
		slog.String("outcome", string(outcome)),
		slog.Int("questions_answered", len(card.Scores)),
		slog.Int("total_score", card.Total()),
		slog.Float64("average_score", card.Average()),
		slog.Bool("passed", card.Passed()),
	)
}

// OutcomeFor maps a completed snapshot to its disposition. Sessions that did
// not reach completion are incomplete regardless of partial scores.
func OutcomeFor(snap interview.Snapshot) Outcome {
	if snap.Status != interview.StatusCompleted {
		return OutcomeIncomplete
	}
	if snap.Scorecard().Passed() {
		return OutcomeSelected
	}
	return OutcomeRejected
}
