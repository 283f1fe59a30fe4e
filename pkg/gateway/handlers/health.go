package handlers

import (
	"net/http"

	"github.com/vango-go/callscreen/pkg/gateway/config"
	"github.com/vango-go/callscreen/pkg/gateway/lifecycle"
	"github.com/vango-go/callscreen/pkg/interview"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config    config.Config
	Lifecycle *lifecycle.Lifecycle
	Registry  *interview.Registry
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK       bool     `json:"ok"`
		Draining bool     `json:"draining"`
		Provider string   `json:"provider"`
		Sessions int      `json:"sessions"`
		Issues   []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.Provider {
	case config.ProviderTwilio, config.ProviderLoopback:
	default:
		issues = append(issues, "invalid provider")
	}
	if h.Config.Provider == config.ProviderTwilio && h.Config.TwilioAccountSID == "" {
		issues = append(issues, "provider=twilio but no account sid configured")
	}
	if h.Config.QuestionsPerInterview <= 0 {
		issues = append(issues, "questions per interview must be > 0")
	}
	if h.Config.MaxCallDuration <= 0 || h.Config.OperatorWaitTimeout <= 0 {
		issues = append(issues, "durations must be > 0")
	}
	if h.Config.ReaperInterval <= 0 || h.Config.TerminalRetention <= 0 {
		issues = append(issues, "reaper settings must be > 0")
	}

	draining := h.Lifecycle.IsDraining()
	ok := len(issues) == 0 && !draining
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}

	sessions := 0
	if h.Registry != nil {
		sessions = h.Registry.Len()
	}

	writeJSON(w, status, readyResp{
		OK:       ok,
		Draining: draining,
		Provider: string(h.Config.Provider),
		Sessions: sessions,
		Issues:   issues,
	})
}

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "not found"})
}
