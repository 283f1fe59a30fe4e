package handlers

import (
	"net/http"

	"github.com/vango-go/callscreen/pkg/interview"
)

// EnableControlHandler flips a session to operator control. The flip is
// one-way for the session's lifetime.
type EnableControlHandler struct {
	Gate *interview.Gate
}

func (h EnableControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Gate.Enable(r.PathValue("call_sid")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// SendResponseHandler delivers the operator's reply to a parked turn.
type SendResponseHandler struct {
	Gate *interview.Gate
}

func (h SendResponseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid form body"})
		return
	}
	text := r.PostFormValue("response")
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "response is required"})
		return
	}
	if err := h.Gate.SubmitResponse(r.PathValue("call_sid"), text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
