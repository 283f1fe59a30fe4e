package interview

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// fallbackReply is spoken when the operator window closes with no response,
// so the call never stalls on a human.
const fallbackReply = "Thank you for that. Let's keep going."

// Gate lets a human operator take over single turns of a live call. At most
// one wait is pending per session; a submit racing the timeout is resolved by
// whichever session-state transition lands first, and the loser is a no-op.
type Gate struct {
	reg     *Registry
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	waits map[string]chan string
}

func NewGate(reg *Registry, timeout time.Duration, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		reg:     reg,
		timeout: timeout,
		logger:  logger,
		waits:   make(map[string]chan string),
	}
}

// Enable flips operator control on. Idempotent; the flip is one-way for the
// session's lifetime. Fails NotFound if the session is absent or terminal.
func (g *Gate) Enable(callSID string) error {
	return g.reg.update(callSID, func(s *session) error {
		if s.status.Terminal() {
			return notFound(callSID)
		}
		s.operatorControl = true
		return nil
	})
}

// RequestOperator parks the session in WaitingForOperator with the candidate's
// utterance as the pending prompt and blocks until an operator responds, the
// wait window elapses, or ctx is cancelled. It returns the reply to speak and
// whether it came from a human.
func (g *Gate) RequestOperator(ctx context.Context, callSID, utterance string) (reply string, fromOperator bool, err error) {
	ch := make(chan string, 1)
	g.mu.Lock()
	if _, exists := g.waits[callSID]; exists {
		g.mu.Unlock()
		return "", false, &Error{Type: ErrInvalidTransition, Message: "session " + callSID + " already has a pending operator wait"}
	}
	g.waits[callSID] = ch
	g.mu.Unlock()

	err = g.reg.update(callSID, func(s *session) error {
		if !s.status.canTransition(StatusWaitingForOperator) {
			return invalidTransition(callSID, s.status, StatusWaitingForOperator)
		}
		s.status = StatusWaitingForOperator
		s.pendingPrompt = utterance
		return nil
	})
	if err != nil {
		g.clearWait(callSID)
		return "", false, err
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case text := <-ch:
		// SubmitResponse already applied the transition and log entry.
		return text, true, nil

	case <-timer.C:
		claimed, err := g.claimTimeout(callSID)
		if err != nil {
			g.clearWait(callSID)
			return "", false, err
		}
		if claimed {
			g.clearWait(callSID)
			g.logger.Info("operator timeout, AI fallback", "call_sid", callSID)
			return fallbackReply, false, nil
		}
		// A submit won the race after the timer fired; its reply is on the
		// buffered channel (or about to be).
		select {
		case text := <-ch:
			return text, true, nil
		case <-ctx.Done():
			g.clearWait(callSID)
			return "", false, ctx.Err()
		}

	case <-ctx.Done():
		g.clearWait(callSID)
		g.cancelWait(callSID)
		return "", false, ctx.Err()
	}
}

// SubmitResponse delivers the operator's reply. Only valid while the session
// is WaitingForOperator; otherwise NotWaiting.
func (g *Gate) SubmitResponse(callSID, text string) error {
	err := g.reg.update(callSID, func(s *session) error {
		if s.status != StatusWaitingForOperator {
			return &Error{Type: ErrNotWaiting, Message: "session " + callSID + " is not waiting for an operator"}
		}
		s.status = StatusInProgress
		s.pendingPrompt = ""
		s.appendEntry(RoleOperator, text, g.reg.now())
		return nil
	})
	if err != nil {
		return err
	}

	g.mu.Lock()
	ch := g.waits[callSID]
	delete(g.waits, callSID)
	g.mu.Unlock()
	if ch != nil {
		ch <- text
	}
	return nil
}

// claimTimeout attempts the timeout transition. claimed=false with a nil
// error means a submit got to the session state first. A session that went
// terminal while parked (reaped, failed) is an error, because no submit can
// ever feed its wait channel.
func (g *Gate) claimTimeout(callSID string) (claimed bool, err error) {
	err = g.reg.update(callSID, func(s *session) error {
		if s.status.Terminal() {
			return invalidTransition(callSID, s.status, StatusInProgress)
		}
		if s.status != StatusWaitingForOperator {
			return nil
		}
		s.status = StatusInProgress
		s.pendingPrompt = ""
		s.appendEntry(RoleSystem, "operator timeout: automatic continuation", g.reg.now())
		s.appendEntry(RoleAgent, fallbackReply, g.reg.now())
		claimed = true
		return nil
	})
	return claimed, err
}

// cancelWait unparks a session whose relay turn went away (hangup) while it
// was waiting on an operator.
func (g *Gate) cancelWait(callSID string) {
	_ = g.reg.update(callSID, func(s *session) error {
		if s.status != StatusWaitingForOperator {
			return nil
		}
		s.status = StatusInProgress
		s.pendingPrompt = ""
		s.appendEntry(RoleSystem, "operator wait cancelled", g.reg.now())
		return nil
	})
}

func (g *Gate) clearWait(callSID string) {
	g.mu.Lock()
	delete(g.waits, callSID)
	g.mu.Unlock()
}
