// Package relay speaks the telephony provider's conversation-relay protocol:
// a websocket per call carrying the candidate's transcribed speech inbound and
// the interviewer's text outbound. The provider handles audio on its side.
package relay

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-go/callscreen/pkg/gateway/lifecycle"
	"github.com/vango-go/callscreen/pkg/interview"
	"github.com/vango-go/callscreen/pkg/notify"
)

const (
	frameTypeSetup     = "setup"
	frameTypePrompt    = "prompt"
	frameTypeInterrupt = "interrupt"
	frameTypeText      = "text"
	frameTypeEnd       = "end"

	handshakeTimeout = 10 * time.Second

	answerAck      = "Thank you."
	closingMessage = "That completes the interview. Thank you for your time; we will be in touch with the results."
)

// inboundFrame is the union of provider frames we care about. Unknown types
// are tolerated and skipped.
type inboundFrame struct {
	Type                    string `json:"type"`
	CallSID                 string `json:"callSid"`
	VoicePrompt             string `json:"voicePrompt"`
	UtteranceUntilInterrupt string `json:"utteranceUntilInterrupt"`
}

type textFrame struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Last  bool   `json:"last"`
}

// Handler serves the /ws relay endpoint.
type Handler struct {
	Registry     *interview.Registry
	Scheduler    *interview.Scheduler
	Gate         *interview.Gate
	Notifier     notify.Notifier
	Lifecycle    *lifecycle.Lifecycle
	Tracker      *Tracker
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// relayConn serializes websocket writes; the read loop and shutdown warnings
// write concurrently.
type relayConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *relayConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(v)
}

func (c *relayConn) speak(text string, last bool) error {
	return c.writeJSON(textFrame{Type: frameTypeText, Token: text, Last: last})
}

func (h Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Lifecycle.IsDraining() {
		http.Error(w, "draining", http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	conn := &relayConn{conn: ws, writeTimeout: h.WriteTimeout}

	// The provider opens the socket and immediately sends setup with the SID
	// of the call it is bridging.
	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var setup inboundFrame
	if err := ws.ReadJSON(&setup); err != nil {
		return
	}
	_ = ws.SetReadDeadline(time.Time{})
	if setup.Type != frameTypeSetup || setup.CallSID == "" {
		h.logger().Warn("relay opened without setup frame", "type", setup.Type)
		return
	}
	callSID := setup.CallSID

	if err := h.Registry.Transition(callSID, interview.StatusInProgress); err != nil {
		h.logger().Warn("relay setup for unknown or finished session", "call_sid", callSID, "error", err)
		return
	}
	h.logger().Info("call connected", "call_sid", callSID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	unregister := h.Tracker.Register(callSID, Handle{
		Cancel: func() {
			cancel()
			_ = ws.Close()
		},
		Warn: func(message string) error {
			return conn.speak(message, true)
		},
	})
	defer unregister()

	h.askNext(conn, callSID)

	for {
		var frame inboundFrame
		if err := ws.ReadJSON(&frame); err != nil {
			h.onDisconnect(ctx, callSID)
			return
		}
		switch frame.Type {
		case frameTypePrompt:
			if done := h.onPrompt(ctx, conn, callSID, frame.VoicePrompt); done {
				_ = conn.writeJSON(map[string]string{"type": frameTypeEnd})
				return
			}
		case frameTypeInterrupt:
			_ = h.Registry.Append(callSID, interview.RoleSystem, "candidate interrupted: "+frame.UtteranceUntilInterrupt)
		default:
			// Providers add frame types over time; unknown ones are skipped.
		}
	}
}

// askNext speaks the current question and parks the session waiting for the
// candidate's answer.
func (h Handler) askNext(conn *relayConn, callSID string) {
	question, ok, err := h.Scheduler.NextQuestion(callSID)
	if err != nil || !ok {
		return
	}
	if err := h.Registry.Append(callSID, interview.RoleAgent, question); err != nil {
		return
	}
	if err := conn.speak(question, true); err != nil {
		return
	}
	_ = h.Registry.Transition(callSID, interview.StatusWaitingForAnswer)
}

// onPrompt handles one candidate utterance. Returns true when the interview
// finished and the connection should end.
func (h Handler) onPrompt(ctx context.Context, conn *relayConn, callSID, utterance string) (done bool) {
	snap, err := h.Registry.Get(callSID)
	if err != nil {
		return true
	}
	if snap.Status != interview.StatusWaitingForAnswer {
		// Speech outside an answer window: restate the pending question and
		// reopen the answer window if the session allows it.
		if snap.Status == interview.StatusInProgress {
			h.askNext(conn, callSID)
		} else if question, ok, _ := h.Scheduler.NextQuestion(callSID); ok {
			_ = conn.speak(question, true)
		}
		return false
	}

	res, err := h.Scheduler.RecordAnswer(ctx, callSID, utterance)
	if err != nil {
		// Session went terminal while the answer was in flight.
		return true
	}

	if res.Done {
		_ = conn.speak(closingMessage, true)
		if h.Notifier != nil {
			h.Notifier.InterviewFinished(ctx, res.Snapshot, notify.OutcomeFor(res.Snapshot))
		}
		h.logger().Info("interview completed", "call_sid", callSID,
			"average_score", res.Snapshot.Scorecard().Average(),
			"passed", res.Snapshot.Scorecard().Passed(),
		)
		return true
	}

	if res.Snapshot.OperatorControl {
		reply, fromOperator, err := h.Gate.RequestOperator(ctx, callSID, utterance)
		if err == nil {
			_ = conn.speak(reply, true)
			h.logger().Info("operator turn", "call_sid", callSID, "from_operator", fromOperator)
		}
	} else {
		_ = conn.speak(answerAck, true)
	}

	h.askNext(conn, callSID)
	return false
}

// onDisconnect marks a hangup. A session that already completed is left
// alone; anything else becomes a failed, notified interview.
func (h Handler) onDisconnect(ctx context.Context, callSID string) {
	snap, err := h.Registry.Get(callSID)
	if err != nil || snap.Status.Terminal() {
		return
	}
	if err := h.Registry.Fail(callSID, "hangup"); err != nil {
		return
	}
	h.logger().Warn("call disconnected before completion", "call_sid", callSID, "questions_answered", len(snap.Scores))
	if h.Notifier != nil && len(snap.Scores) > 0 {
		if final, err := h.Registry.Get(callSID); err == nil {
			h.Notifier.InterviewFinished(ctx, final, notify.OutcomeIncomplete)
		}
	}
}
