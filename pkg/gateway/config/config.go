package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider selects the telephony backend.
type Provider string

const (
	ProviderTwilio   Provider = "twilio"
	ProviderLoopback Provider = "loopback"
)

type Config struct {
	Addr string

	// PublicDomain is the hostname the telephony provider calls back on for
	// TwiML and the conversation-relay websocket.
	PublicDomain string

	Provider         Provider
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Gemini. An empty API key disables grading and question generation; the
	// orchestrator falls back to neutral scores and the built-in question bank.
	GeminiAPIKey string
	GeminiModel  string
	GradeTimeout time.Duration

	// Interview shape.
	QuestionsPerInterview int
	PassPercentage        int
	MaxCallDuration       time.Duration
	OperatorWaitTimeout   time.Duration

	// Reaper.
	ReaperInterval    time.Duration
	TerminalRetention time.Duration

	// Relay websocket.
	RelayWriteTimeout time.Duration

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                  envOr("CALLSCREEN_ADDR", ":8080"),
		PublicDomain:          envOr("CALLSCREEN_PUBLIC_DOMAIN", "localhost:8080"),
		Provider:              Provider(envOr("CALLSCREEN_PROVIDER", "")),
		TwilioAccountSID:      strings.TrimSpace(os.Getenv("CALLSCREEN_TWILIO_ACCOUNT_SID")),
		TwilioAuthToken:       strings.TrimSpace(os.Getenv("CALLSCREEN_TWILIO_AUTH_TOKEN")),
		TwilioFromNumber:      strings.TrimSpace(os.Getenv("CALLSCREEN_TWILIO_FROM_NUMBER")),
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("CALLSCREEN_GEMINI_API_KEY")),
		GeminiModel:           envOr("CALLSCREEN_GEMINI_MODEL", "gemini-2.0-flash"),
		GradeTimeout:          envDurationOr("CALLSCREEN_GRADE_TIMEOUT", 15*time.Second),
		QuestionsPerInterview: envIntOr("CALLSCREEN_QUESTIONS_PER_INTERVIEW", 10),
		PassPercentage:        envIntOr("CALLSCREEN_PASS_PERCENTAGE", 50),
		MaxCallDuration:       envDurationOr("CALLSCREEN_MAX_CALL_DURATION", 20*time.Minute),
		OperatorWaitTimeout:   envDurationOr("CALLSCREEN_OPERATOR_WAIT_TIMEOUT", 120*time.Second),
		ReaperInterval:        envDurationOr("CALLSCREEN_REAPER_INTERVAL", 30*time.Second),
		TerminalRetention:     envDurationOr("CALLSCREEN_TERMINAL_RETENTION", 2*time.Minute),
		RelayWriteTimeout:     envDurationOr("CALLSCREEN_RELAY_WRITE_TIMEOUT", 5*time.Second),
		CORSAllowedOrigins:    make(map[string]struct{}),
		ReadHeaderTimeout:     envDurationOr("CALLSCREEN_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:           envDurationOr("CALLSCREEN_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:   envDurationOr("CALLSCREEN_SHUTDOWN_GRACE_PERIOD", 15*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("CALLSCREEN_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	// Provider defaults to Twilio when credentials are present, loopback
	// otherwise, so a bare dev environment starts without configuration.
	if cfg.Provider == "" {
		if cfg.TwilioAccountSID != "" {
			cfg.Provider = ProviderTwilio
		} else {
			cfg.Provider = ProviderLoopback
		}
	}

	switch cfg.Provider {
	case ProviderTwilio, ProviderLoopback:
	default:
		return Config{}, fmt.Errorf("CALLSCREEN_PROVIDER must be one of twilio|loopback")
	}

	if cfg.Provider == ProviderTwilio {
		if cfg.TwilioAccountSID == "" {
			return Config{}, fmt.Errorf("CALLSCREEN_TWILIO_ACCOUNT_SID must be set when CALLSCREEN_PROVIDER=twilio")
		}
		if cfg.TwilioAuthToken == "" {
			return Config{}, fmt.Errorf("CALLSCREEN_TWILIO_AUTH_TOKEN must be set when CALLSCREEN_PROVIDER=twilio")
		}
		if cfg.TwilioFromNumber == "" {
			return Config{}, fmt.Errorf("CALLSCREEN_TWILIO_FROM_NUMBER must be set when CALLSCREEN_PROVIDER=twilio")
		}
	}

	if strings.TrimSpace(cfg.PublicDomain) == "" {
		return Config{}, fmt.Errorf("CALLSCREEN_PUBLIC_DOMAIN must not be empty")
	}
	if cfg.QuestionsPerInterview <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_QUESTIONS_PER_INTERVIEW must be > 0")
	}
	if cfg.PassPercentage <= 0 || cfg.PassPercentage > 100 {
		return Config{}, fmt.Errorf("CALLSCREEN_PASS_PERCENTAGE must be in 1..100")
	}
	if cfg.MaxCallDuration <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_MAX_CALL_DURATION must be > 0")
	}
	if cfg.OperatorWaitTimeout <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_OPERATOR_WAIT_TIMEOUT must be > 0")
	}
	if cfg.ReaperInterval <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_REAPER_INTERVAL must be > 0")
	}
	if cfg.TerminalRetention <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_TERMINAL_RETENTION must be > 0")
	}
	if cfg.GradeTimeout <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_GRADE_TIMEOUT must be > 0")
	}
	if cfg.RelayWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_RELAY_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("CALLSCREEN_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
