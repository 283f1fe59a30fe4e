package interview

import (
	"context"
	"log/slog"
	"time"
)

// neutralScore is recorded when the grader is unavailable, so a flaky grader
// degrades a session's accuracy but never its forward progress.
const neutralScore = 5

// Grader scores a candidate answer in [0,10]. Implementations live outside
// this package (pkg/llm); tests use fakes.
type Grader interface {
	Score(ctx context.Context, question, answer string) (int, error)
}

// Scheduler drives question delivery and answer intake for all sessions.
// Ordering is strictly sequential per session and fully parallel across
// sessions.
type Scheduler struct {
	reg          *Registry
	grader       Grader
	gradeTimeout time.Duration
	logger       *slog.Logger
}

func NewScheduler(reg *Registry, grader Grader, gradeTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{reg: reg, grader: grader, gradeTimeout: gradeTimeout, logger: logger}
}

// NextQuestion returns the question at the session's current index. ok=false
// signals the queue is exhausted. Exhaustion is positional, so question text
// is never load-bearing.
func (sc *Scheduler) NextQuestion(callSID string) (question string, ok bool, err error) {
	snap, err := sc.reg.Get(callSID)
	if err != nil {
		return "", false, err
	}
	if snap.CurrentIndex >= snap.QuestionsTotal {
		return "", false, nil
	}
	return snap.CurrentQuestion, true, nil
}

// AnswerResult describes the outcome of one recorded answer.
type AnswerResult struct {
	Question string
	Score    int
	Degraded bool // grader failed, neutral default recorded
	Done     bool // queue exhausted, session completed
	Snapshot Snapshot
}

// RecordAnswer appends the candidate's utterance, grades it, and advances the
// session by exactly one question regardless of grading outcome. The grader
// call runs outside the session lock, bounded by the configured timeout; if
// the session reaches a terminal state while grading is in flight the result
// is discarded.
func (sc *Scheduler) RecordAnswer(ctx context.Context, callSID, answer string) (AnswerResult, error) {
	s, err := sc.reg.lookup(callSID)
	if err != nil {
		return AnswerResult{}, err
	}

	// One answer at a time per session; cross-session grading stays parallel.
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	var question string
	err = sc.reg.update(callSID, func(s *session) error {
		if s.status != StatusWaitingForAnswer {
			return invalidTransition(callSID, s.status, StatusInProgress)
		}
		question = s.currentQuestion()
		s.appendEntry(RoleCandidate, answer, sc.reg.now())
		return nil
	})
	if err != nil {
		return AnswerResult{}, err
	}

	score, degraded := sc.grade(ctx, question, answer)

	res := AnswerResult{Question: question, Score: score, Degraded: degraded}
	err = sc.reg.update(callSID, func(s *session) error {
		if s.status.Terminal() {
			// Session was cancelled or reaped mid-grade; drop the result.
			return invalidTransition(callSID, s.status, StatusInProgress)
		}
		s.scores = append(s.scores, score)
		s.currentIndex++
		if degraded {
			s.appendEntry(RoleSystem, "scoring degraded: recorded neutral default", sc.reg.now())
		}
		s.status = StatusInProgress
		if s.currentIndex >= len(s.queue) {
			s.status = StatusCompleted
			res.Done = true
		}
		res.Snapshot = s.snapshot()
		return nil
	})
	if err != nil {
		return AnswerResult{}, err
	}

	sc.logger.Info("answer recorded",
		"call_sid", callSID,
		"question_index", res.Snapshot.CurrentIndex-1,
		"score", score,
		"degraded", degraded,
		"done", res.Done,
	)
	return res, nil
}

func (sc *Scheduler) grade(ctx context.Context, question, answer string) (score int, degraded bool) {
	if sc.grader == nil {
		return neutralScore, true
	}
	gctx := ctx
	if sc.gradeTimeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, sc.gradeTimeout)
		defer cancel()
	}
	score, err := sc.grader.Score(gctx, question, answer)
	if err != nil {
		sc.logger.Warn("grader failed, recording neutral score", "error", err)
		return neutralScore, true
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, false
}
