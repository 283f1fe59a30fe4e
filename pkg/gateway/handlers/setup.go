package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vango-go/callscreen/pkg/interview"
	"github.com/vango-go/callscreen/pkg/telephony"
)

// QuestionGenerator produces a question bank for a language and focus area.
// Implemented by pkg/llm; nil when no model is configured.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, language, focus string) ([]string, error)
}

const (
	defaultLanguage = "JavaScript"
	defaultYOE      = "2-3"
)

// GenerateQuestionsHandler builds a question bank for the setup screen. A
// generation failure falls back to the built-in bank rather than blocking the
// dashboard flow.
type GenerateQuestionsHandler struct {
	Generator QuestionGenerator
	Logger    *slog.Logger
}

type generateQuestionsRequest struct {
	Language string `json:"language"`
	Prompt   string `json:"prompt"`
}

func (h GenerateQuestionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req generateQuestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json body"})
		return
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}

	questions := generateOrFallback(r.Context(), h.Generator, h.Logger, req.Language, req.Prompt)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "questions": questions})
}

// SetupInterviewHandler is the full setup-screen flow: build the question
// queue, dial the candidate, and register the session.
type SetupInterviewHandler struct {
	Registry      *interview.Registry
	Provider      telephony.Provider
	Generator     QuestionGenerator
	QuestionCount int
	Logger        *slog.Logger
}

type setupInterviewRequest struct {
	PhoneNumber    string   `json:"phoneNumber"`
	Email          string   `json:"email"`
	Language       string   `json:"language"`
	CustomPrompt   string   `json:"customPrompt"`
	YOE            string   `json:"yoe"`
	PassPercentage int      `json:"passPercentage"`
	Questions      []string `json:"questions"`
	MeetingLink    string   `json:"meetingLink"`
}

func (h SetupInterviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req setupInterviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json body"})
		return
	}

	phone := telephony.NormalizeNumber(req.PhoneNumber)
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "phoneNumber is required"})
		return
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}
	if req.YOE == "" {
		req.YOE = defaultYOE
	}

	bank := req.Questions
	if len(bank) == 0 {
		focus := req.CustomPrompt
		if focus == "" {
			focus = "general " + req.Language + " development"
		}
		focus = fmt.Sprintf("%s (candidate experience: %s years)", focus, req.YOE)
		bank = generateOrFallback(r.Context(), h.Generator, h.Logger, req.Language, focus)
	}
	queue := interview.BuildQueue(bank, h.QuestionCount)

	callSID, err := h.Provider.PlaceCall(r.Context(), phone)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("call placement failed", "phone_number", phone, "error", err)
		}
		writeError(w, &interview.Error{Type: interview.ErrProviderFailure, Message: "failed to place call"})
		return
	}

	snap, err := h.Registry.Create(callSID, phone, queue, req.PassPercentage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Interview call initiated to " + phone,
		"call_sid": snap.CallSID,
	})
}

func generateOrFallback(ctx context.Context, gen QuestionGenerator, logger *slog.Logger, language, focus string) []string {
	if gen == nil {
		return interview.DefaultQuestions
	}
	questions, err := gen.GenerateQuestions(ctx, language, focus)
	if err != nil {
		if logger != nil {
			logger.Warn("question generation failed, using default bank", "language", language, "error", err)
		}
		return interview.DefaultQuestions
	}
	return questions
}

// OutboundTwiMLHandler answers the provider's webhook with the document that
// bridges the call onto the conversation-relay websocket.
type OutboundTwiMLHandler struct {
	PublicDomain string
}

const welcomeGreeting = "Hello! Thank you for taking the time to speak with us today. I will be asking you a few technical questions. Let's begin."

func (h OutboundTwiMLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	twiml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Connect>
    <ConversationRelay url="wss://%s/ws" welcomeGreeting=%q />
  </Connect>
</Response>
`, h.PublicDomain, welcomeGreeting)

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(twiml))
}
