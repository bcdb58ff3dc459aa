package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/issuepulse/internal/adapter/driven/github"
	openaiadapter "github.com/ericfisherdev/issuepulse/internal/adapter/driven/openai"
	sqliteadapter "github.com/ericfisherdev/issuepulse/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/issuepulse/internal/adapter/driving/http"
	"github.com/ericfisherdev/issuepulse/internal/application"
	"github.com/ericfisherdev/issuepulse/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"hydration_concurrency", cfg.HydrationConcurrency,
		"previous_score_window", cfg.PreviousScoreWindow,
		"label_selection", cfg.LabelSelectionEnabled(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database and apply migrations.
	db, err := sqliteadapter.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	slog.Info("database ready", "path", cfg.DBPath)

	// 4. Wire driven adapters.
	scoreStore := sqliteadapter.NewScoreRepo(db)
	ghClient := githubadapter.NewClient(cfg.GitHubToken)

	var labelSvc *application.LabelSelectorService
	if cfg.LabelSelectionEnabled() {
		chooser := openaiadapter.NewChooser(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		labelSvc = application.NewLabelSelectorService(chooser, logger)
		slog.Info("label selection enabled", "model", cfg.OpenAIModel)
	} else {
		slog.Info("no openai api key configured, label selection disabled")
	}

	// 5. Application services.
	engagementSvc := application.NewEngagementService(scoreStore, cfg.PreviousScoreWindow, logger)

	// 6. HTTP handler and server.
	apiHandler := httphandler.NewHandler(ghClient, engagementSvc, labelSvc, scoreStore, logger,
		application.WithHydrationConcurrency(cfg.HydrationConcurrency))
	handler := httphandler.NewServeMux(apiHandler, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Project-wide hydration can take a while on large boards.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	slog.Info("issuepulse started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal or a server failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serverErr:
		return err
	}

	// 8. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")

	return nil
}
