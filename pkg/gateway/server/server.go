// Package server assembles the orchestrator's HTTP surface: the dashboard
// contract endpoints, the provider webhooks, and the conversation relay.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vango-go/callscreen/pkg/gateway/config"
	"github.com/vango-go/callscreen/pkg/gateway/handlers"
	"github.com/vango-go/callscreen/pkg/gateway/lifecycle"
	"github.com/vango-go/callscreen/pkg/gateway/mw"
	"github.com/vango-go/callscreen/pkg/gateway/relay"
	"github.com/vango-go/callscreen/pkg/interview"
	"github.com/vango-go/callscreen/pkg/notify"
	"github.com/vango-go/callscreen/pkg/telephony"
)

// Options carries the externally constructed collaborators. Zero values get
// safe defaults: loopback telephony, no grader (neutral scores), no generator
// (built-in question bank), log-backed notifications.
type Options struct {
	Provider  telephony.Provider
	Grader    interview.Grader
	Generator handlers.QuestionGenerator
	Notifier  notify.Notifier
}

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	registry  *interview.Registry
	scheduler *interview.Scheduler
	gate      *interview.Gate
	reaper    *interview.Reaper

	provider  telephony.Provider
	generator handlers.QuestionGenerator
	notifier  notify.Notifier

	lifecycle *lifecycle.Lifecycle
	relays    *relay.Tracker
}

func New(cfg config.Config, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Provider == nil {
		opts.Provider = telephony.Loopback{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewLogger(logger)
	}

	registry := interview.NewRegistry(cfg.MaxCallDuration, logger)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		registry:  registry,
		scheduler: interview.NewScheduler(registry, opts.Grader, cfg.GradeTimeout, logger),
		gate:      interview.NewGate(registry, cfg.OperatorWaitTimeout, logger),
		reaper:    interview.NewReaper(registry, cfg.ReaperInterval, cfg.TerminalRetention, logger),
		provider:  opts.Provider,
		generator: opts.Generator,
		notifier:  opts.Notifier,
		lifecycle: &lifecycle.Lifecycle{},
		relays:    relay.NewTracker(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})
	s.mux.Handle("GET /readyz", handlers.ReadyHandler{Config: s.cfg, Lifecycle: s.lifecycle, Registry: s.registry})

	s.mux.Handle("POST /make-call", handlers.MakeCallHandler{
		Registry:       s.registry,
		Provider:       s.provider,
		Questions:      interview.DefaultQuestions,
		QuestionCount:  s.cfg.QuestionsPerInterview,
		PassPercentage: s.cfg.PassPercentage,
		Logger:         s.logger,
	})
	s.mux.Handle("GET /active-calls", handlers.ActiveCallsHandler{Registry: s.registry})
	s.mux.Handle("GET /interview-status/{call_sid}", handlers.InterviewStatusHandler{Registry: s.registry})
	s.mux.Handle("GET /get-conversation/{call_sid}", handlers.ConversationHandler{Registry: s.registry})
	s.mux.Handle("POST /end-interview/{call_sid}", handlers.EndInterviewHandler{
		Registry: s.registry,
		Notifier: s.notifier,
		Logger:   s.logger,
	})

	s.mux.Handle("POST /enable-control/{call_sid}", handlers.EnableControlHandler{Gate: s.gate})
	s.mux.Handle("POST /send-response/{call_sid}", handlers.SendResponseHandler{Gate: s.gate})

	s.mux.Handle("POST /api/generate-questions", handlers.GenerateQuestionsHandler{
		Generator: s.generator,
		Logger:    s.logger,
	})
	s.mux.Handle("POST /api/setup-interview", handlers.SetupInterviewHandler{
		Registry:      s.registry,
		Provider:      s.provider,
		Generator:     s.generator,
		QuestionCount: s.cfg.QuestionsPerInterview,
		Logger:        s.logger,
	})

	s.mux.Handle("POST /outbound-twiml", handlers.OutboundTwiMLHandler{PublicDomain: s.cfg.PublicDomain})
	s.mux.Handle("GET /ws", relay.Handler{
		Registry:     s.registry,
		Scheduler:    s.scheduler,
		Gate:         s.gate,
		Notifier:     s.notifier,
		Lifecycle:    s.lifecycle,
		Tracker:      s.relays,
		WriteTimeout: s.cfg.RelayWriteTimeout,
		Logger:       s.logger,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// Registry exposes the session registry for the entrypoint and tests.
func (s *Server) Registry() *interview.Registry {
	return s.registry
}

// StartReaper launches the background expiry sweep.
func (s *Server) StartReaper() {
	s.reaper.Start()
}

// StopReaper halts the sweep and waits for the in-flight pass.
func (s *Server) StopReaper() {
	s.reaper.Stop()
}

func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
}

// WarnRelaySessions tells every live call that the service is going away.
func (s *Server) WarnRelaySessions() {
	s.relays.WarnAll("We are experiencing a brief service interruption. Please stay on the line.")
}

func (s *Server) WaitRelaySessions(ctx context.Context) bool {
	return s.relays.Wait(ctx)
}

func (s *Server) CancelRelaySessions() {
	s.relays.CancelAll()
}
