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

	githubadapter "github.com/ericfisherdev/dualreview/internal/adapter/driven/github"
	"github.com/ericfisherdev/dualreview/internal/adapter/driven/llm"
	"github.com/ericfisherdev/dualreview/internal/adapter/driven/memory"
	sqliteadapter "github.com/ericfisherdev/dualreview/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/dualreview/internal/adapter/driving/http"
	"github.com/ericfisherdev/dualreview/internal/application"
	"github.com/ericfisherdev/dualreview/internal/config"
	"github.com/ericfisherdev/dualreview/internal/domain/port/driven"
	"github.com/ericfisherdev/dualreview/internal/logging"
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

	logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"bot_name", cfg.BotName,
		"store", cfg.Store,
		"github_api_url", cfg.GitHubAPIURL,
		"openai_model", cfg.OpenAIModel,
		"deepseek_model", cfg.DeepSeekModel,
	)
	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, OpenAI reviews will report an authentication error")
	}
	if cfg.DeepSeekAPIKey == "" {
		slog.Warn("DEEPSEEK_API_KEY not set, DeepSeek reviews will report an authentication error")
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the preference store.
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. Wire adapters.
	ghClient, err := githubadapter.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		return err
	}

	reviewers := []driven.Reviewer{
		llm.NewOpenAI(llm.Options{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIModel,
			MaxTokens:    cfg.MaxTokens,
			MaxDiffBytes: cfg.MaxDiffBytes,
			Timeout:      cfg.ReviewTimeout,
		}),
		llm.NewDeepSeek(llm.Options{
			APIKey:       cfg.DeepSeekAPIKey,
			BaseURL:      cfg.DeepSeekBaseURL,
			Model:        cfg.DeepSeekModel,
			MaxTokens:    cfg.MaxTokens,
			MaxDiffBytes: cfg.MaxDiffBytes,
			Timeout:      cfg.ReviewTimeout,
		}),
	}

	// 5. Create the orchestrator and HTTP handler.
	orchestrator := application.NewReviewOrchestrator(store, ghClient, reviewers, cfg.BotName, logger)
	handler := httphandler.NewServeMux(httphandler.NewHandler(orchestrator, cfg.ProcessTimeout, logger), logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ProcessTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("dualreview started", "listen_addr", cfg.ListenAddr, "webhook", "POST /webhook")

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 7. Graceful shutdown; in-flight deliveries get up to the process timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ProcessTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStore returns the configured preference store and its close function.
func openStore(ctx context.Context, cfg *config.Config) (driven.PreferenceStore, func(), error) {
	if cfg.Store != config.StoreSQLite {
		slog.Info("using in-memory preference store")
		return memory.NewPreferenceStore(), func() {}, nil
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("database opened", "path", db.Path())

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	slog.Info("migrations complete")

	closeFn := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}
	return sqliteadapter.NewPreferenceRepo(db), closeFn, nil
}
