package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vango-go/callscreen/pkg/interview"
	"github.com/vango-go/callscreen/pkg/notify"
	"github.com/vango-go/callscreen/pkg/telephony"
)

// MakeCallHandler places an outbound call with the default question bank and
// registers the session under the provider's call SID.
type MakeCallHandler struct {
	Registry       *interview.Registry
	Provider       telephony.Provider
	Questions      []string
	QuestionCount  int
	PassPercentage int
	Logger         *slog.Logger
}

func (h MakeCallHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid form body"})
		return
	}
	phone := telephony.NormalizeNumber(r.PostFormValue("phone_number"))
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "phone_number is required"})
		return
	}

	callSID, err := h.Provider.PlaceCall(r.Context(), phone)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("call placement failed", "phone_number", phone, "error", err)
		}
		writeError(w, &interview.Error{Type: interview.ErrProviderFailure, Message: "failed to place call"})
		return
	}

	queue := interview.BuildQueue(h.Questions, h.QuestionCount)
	snap, err := h.Registry.Create(callSID, phone, queue, h.PassPercentage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Call initiated to " + phone,
		"call_sid": snap.CallSID,
	})
}

// ActiveCallsHandler serves the dashboard's 3-second poll of live sessions.
type ActiveCallsHandler struct {
	Registry *interview.Registry
}

type activeCall struct {
	CallSID            string `json:"call_sid"`
	PhoneNumber        string `json:"phone_number"`
	Status             string `json:"status"`
	QuestionsAsked     int    `json:"questions_asked"`
	WaitingForResponse bool   `json:"waiting_for_response"`
	LastUserMessage    string `json:"last_user_message"`
	OperatorControl    bool   `json:"operator_control"`
	UpdatedAt          string `json:"updated_at"`
}

func (h ActiveCallsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	summaries := h.Registry.ListActive()
	calls := make([]activeCall, 0, len(summaries))
	for _, s := range summaries {
		calls = append(calls, activeCall{
			CallSID:            s.CallSID,
			PhoneNumber:        s.PhoneNumber,
			Status:             string(s.Status),
			QuestionsAsked:     s.QuestionsAsked,
			WaitingForResponse: s.WaitingForResponse,
			LastUserMessage:    s.LastUserMessage,
			OperatorControl:    s.OperatorControl,
			UpdatedAt:          s.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "active_calls": calls})
}

// InterviewStatusHandler serves the dashboard's 2-second status poll.
type InterviewStatusHandler struct {
	Registry *interview.Registry
}

func (h InterviewStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Registry.Get(r.PathValue("call_sid"))
	if err != nil {
		writePollError(w, err)
		return
	}
	card := snap.Scorecard()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"status":             string(snap.Status),
		"questions_asked":    snap.CurrentIndex,
		"questions_total":    snap.QuestionsTotal,
		"total_score":        card.Total(),
		"average_score":      card.Average(),
		"scores":             snap.Scores,
		"current_question":   snap.CurrentQuestion,
		"waiting_for_answer": snap.Status == interview.StatusWaitingForAnswer,
		"operator_control":   snap.OperatorControl,
	})
}

// ConversationHandler returns the full transcript.
type ConversationHandler struct {
	Registry *interview.Registry
}

func (h ConversationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Registry.Get(r.PathValue("call_sid"))
	if err != nil {
		writePollError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"conversation_log": snap.Log,
	})
}

// EndInterviewHandler is the operator's early-completion action: the session
// is finalized, the outcome notification fires, and the session is removed so
// pollers see it disappear.
type EndInterviewHandler struct {
	Registry *interview.Registry
	Notifier notify.Notifier
	Logger   *slog.Logger
}

func (h EndInterviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	callSID := r.PathValue("call_sid")
	snap, err := h.Registry.Get(callSID)
	if err != nil {
		writePollError(w, err)
		return
	}

	if !snap.Status.Terminal() {
		// Completed is only reachable from answer-flow states; an interview
		// ended while dialing or parked on an operator is recorded as failed.
		if err := h.Registry.Transition(callSID, interview.StatusCompleted); err != nil {
			if err := h.Registry.Fail(callSID, "ended by operator"); err != nil {
				writePollError(w, err)
				return
			}
		}
		snap, err = h.Registry.Get(callSID)
		if err != nil {
			writePollError(w, err)
			return
		}
		if h.Notifier != nil {
			h.Notifier.InterviewFinished(r.Context(), snap, notify.OutcomeFor(snap))
		}
	}

	card := snap.Scorecard()
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": map[string]any{
			"questions_answered": len(card.Scores),
			"total_score":        card.Total(),
			"average_score":      card.Average(),
			"passed":             card.Passed(),
			"status":             string(snap.Status),
		},
	})

	if err := h.Registry.Remove(callSID); err != nil && h.Logger != nil {
		h.Logger.Warn("failed to remove ended session", "call_sid", callSID, "error", err)
	}
}
