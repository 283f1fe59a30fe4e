package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vango-go/callscreen/internal/dotenv"
	"github.com/vango-go/callscreen/pkg/gateway/config"
	gatewayserver "github.com/vango-go/callscreen/pkg/gateway/server"
	"github.com/vango-go/callscreen/pkg/llm"
	"github.com/vango-go/callscreen/pkg/telephony"
)

type screenDeps struct {
	loadConfig   func() (config.Config, error)
	newGateway   func(config.Config, *slog.Logger, gatewayserver.Options) *gatewayserver.Server
	buildOptions func(context.Context, config.Config, *slog.Logger) (gatewayserver.Options, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultScreenDeps() screenDeps {
	return screenDeps{
		loadConfig:   config.LoadFromEnv,
		newGateway:   gatewayserver.New,
		buildOptions: buildOptions,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// buildOptions wires the external collaborators from config: the telephony
// provider and, when a Gemini key is present, the grader and question
// generator.
func buildOptions(ctx context.Context, cfg config.Config, logger *slog.Logger) (gatewayserver.Options, error) {
	var opts gatewayserver.Options

	switch cfg.Provider {
	case config.ProviderTwilio:
		opts.Provider = &telephony.Twilio{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
			Domain:     cfg.PublicDomain,
		}
	default:
		opts.Provider = telephony.Loopback{}
		logger.Warn("no telephony credentials configured, using loopback provider")
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("no gemini api key configured, answers get neutral scores and the built-in question bank is used")
		return opts, nil
	}
	client, err := llm.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return opts, fmt.Errorf("create gemini client: %w", err)
	}
	opts.Grader = client
	opts.Generator = client
	return opts, nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runScreen(ctx context.Context, logger *slog.Logger, deps screenDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.newGateway == nil {
		return errors.New("missing newGateway dependency")
	}
	if deps.buildOptions == nil {
		return errors.New("missing buildOptions dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts, err := deps.buildOptions(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build collaborators: %w", err)
	}

	gw := deps.newGateway(cfg, logger, opts)
	gw.StartReaper()
	defer gw.StopReaper()

	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting orchestrator", "addr", cfg.Addr, "provider", cfg.Provider)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	gw.SetDraining()
	gw.WarnRelaySessions()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.WaitRelaySessions(waitCtx) {
		gw.CancelRelaySessions()
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("orchestrator stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps screenDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "callscreen: %v\n", err)
		return 1
	}

	if err := runScreen(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "callscreen: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultScreenDeps()))
}
