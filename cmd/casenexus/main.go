// Package main provides the CLI entry point for Case Nexus, a public
// defender's caseload analysis orchestrator.
//
// # Basic Usage
//
// Start the server:
//
//	casenexus serve --config case-nexus.yaml
//
// # Environment Variables
//
// Configuration can be provided via environment variables; see
// internal/config for the full list. At minimum:
//
//   - CASE_NEXUS_LLM_API_KEY (or ANTHROPIC_API_KEY): the LLM provider's API key
//   - CASE_NEXUS_WEB_SEARCH_API_KEY: optional grounded case-law search key
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/case-nexus/internal/citations"
	"github.com/haasonsaas/case-nexus/internal/config"
	"github.com/haasonsaas/case-nexus/internal/contextbuilder"
	"github.com/haasonsaas/case-nexus/internal/corpus"
	"github.com/haasonsaas/case-nexus/internal/cron"
	"github.com/haasonsaas/case-nexus/internal/eventbus"
	"github.com/haasonsaas/case-nexus/internal/gate"
	"github.com/haasonsaas/case-nexus/internal/insights"
	"github.com/haasonsaas/case-nexus/internal/llm"
	"github.com/haasonsaas/case-nexus/internal/llm/anthropic"
	"github.com/haasonsaas/case-nexus/internal/observability"
	"github.com/haasonsaas/case-nexus/internal/streaming"
	"github.com/haasonsaas/case-nexus/internal/tokens"
	"github.com/haasonsaas/case-nexus/internal/toolloop"
	"github.com/haasonsaas/case-nexus/internal/tools"
	"github.com/haasonsaas/case-nexus/internal/tools/caselaw"
	"github.com/haasonsaas/case-nexus/internal/web"
	"github.com/haasonsaas/case-nexus/internal/workflow"
)

// version is set at build time, e.g.:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "casenexus",
		Short:        "Case Nexus - public defender caseload analysis orchestrator",
		Version:      version,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd())
	return rootCmd
}

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Case Nexus server",
		Long: `Start the Case Nexus server: loads the caseload from its persisted
store, wires the Analysis Orchestrator, and serves the control channel
and read HTTP API. Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("CASE_NEXUS_CONFIG"),
		"path to YAML configuration file (optional)")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info(ctx, "starting case nexus", "version", version, "config", configPath)

	slogLogger := newSlogLogger(cfg)

	db, err := corpus.OpenSQLite(corpus.SQLiteConfig{Path: cfg.Database.Path})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	store, err := corpus.LoadSnapshot(ctx, db)
	if err != nil {
		return fmt.Errorf("load caseload snapshot: %w", err)
	}

	insightLog := insights.NewSQLLog(db)
	builder := contextbuilder.New(store, insightLog)
	builder.SetLegalContextTokenCap(cfg.Budgets.LegalContextTokenCap)

	bus := eventbus.New()
	accountant := tokens.New(bus)

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("init llm provider: %w", err)
	}
	runner := streaming.New(provider, bus, accountant)

	caselawClient := caselaw.New(caselaw.Config{BraveAPIKey: cfg.LLM.WebSearchAPIKey})

	registry := tools.NewRegistry()
	registry.Register(tools.NewGetCaseTool(store))
	registry.Register(tools.NewGetCaseContextTool(builder))
	registry.Register(tools.NewGetLegalContextTool(builder))
	registry.Register(tools.NewGetAlertsTool(store))
	registry.Register(tools.NewGetConnectionsTool(store))
	registry.Register(tools.NewGetPriorAnalysesTool(insightLog))
	registry.Register(tools.NewSearchCaseLawTool(caselawClient))
	registry.Register(tools.NewSearchPrecedentsForChargesTool(caselawClient))

	externalVerifier := citations.NewGroundedVerifier(caselawClient)
	verifier := citations.New(citations.NewMemoryIndex(nil), externalVerifier)
	registry.Register(tools.NewVerifyCitationsTool(externalVerifier))

	loop := toolloop.New(runner, registry, bus)

	engine := workflow.New(store, store, builder, runner, loop, registry, insightLog, bus, verifier)
	engine.SetBudgets(cfg)

	g := gate.New()
	router := web.NewServer(engine, registry, store, insightLog, g, bus, accountant, slogLogger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	scheduler := cron.New(web.NewHealthCheckTrigger(engine, g, slogLogger))
	if cfg.Cron.Schedule != "" {
		if err := scheduler.Schedule(cfg.Cron.ClientID, cfg.Cron.Schedule); err != nil {
			return fmt.Errorf("schedule health check cron: %w", err)
		}
		scheduler.Start()
		logger.Info(ctx, "health check cron scheduled", "schedule", cfg.Cron.Schedule, "client_id", cfg.Cron.ClientID)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	logger.Info(ctx, "case nexus listening", "addr", addr)

	select {
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if cfg.Cron.Schedule != "" {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn(context.Background(), "cron scheduler shutdown error", "error", err)
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info(context.Background(), "case nexus stopped")
	return nil
}

func newProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "", "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.DefaultModel,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.LLM.Provider)
	}
}

// newSlogLogger builds the plain *slog.Logger the control channel and cron
// scheduler take, matching cfg.Logging's level/format. Kept separate from
// observability.Logger, whose ctx-aware API and redaction are used for this
// process's own lifecycle logging above.
func newSlogLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
