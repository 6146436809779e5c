// Copyright 2025 MMEC Campus Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmec-labs/campus-assistant/internal/auth"
	"github.com/mmec-labs/campus-assistant/internal/chat"
	"github.com/mmec-labs/campus-assistant/internal/chatlog"
	"github.com/mmec-labs/campus-assistant/internal/config"
	"github.com/mmec-labs/campus-assistant/internal/faq"
	"github.com/mmec-labs/campus-assistant/internal/health"
	"github.com/mmec-labs/campus-assistant/internal/history"
	"github.com/mmec-labs/campus-assistant/internal/knowledge"
	"github.com/mmec-labs/campus-assistant/internal/provider"
	"github.com/mmec-labs/campus-assistant/internal/report"
	"github.com/mmec-labs/campus-assistant/internal/scope"
	"github.com/mmec-labs/campus-assistant/internal/server"
	"github.com/mmec-labs/campus-assistant/internal/settings"
)

const (
	serviceName    = "campus-assistant"
	serviceVersion = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chatbot HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("data_dir", cfg.Data.Dir),
		zap.String("matcher_strategy", cfg.Matcher.Strategy),
		zap.String("history_backend", cfg.History.Backend),
	)

	// Collaborators are wired once at startup, so a file change is surfaced
	// rather than applied live.
	if err := config.WatchConfig(configPath, logger, func(next *config.Config) {
		logger.Info("configuration file changed, restart to apply",
			zap.String("matcher_strategy", next.Matcher.Strategy),
			zap.String("history_backend", next.History.Backend),
		)
	}); err != nil {
		logger.Warn("configuration watching disabled", zap.Error(err))
	}

	matcher, err := faq.NewMatcher(cfg.Matcher.Strategy, faq.DefaultEntries())
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Backend, cfg.Data.DBPath, cfg.Data.HistoriesDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer func() { _ = store.Close() }()

	audit, err := chatlog.New(cfg.Data.DBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open chat log: %w", err)
	}
	defer func() { _ = audit.Close() }()

	settingsStore := settings.NewStore(cfg.Data.SettingsPath, logger)

	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	dispatcher := provider.NewDispatcher(
		registry,
		settingsStore,
		time.Duration(cfg.Providers.TimeoutSeconds)*time.Second,
		logger,
	)

	pipeline := chat.NewPipeline(
		matcher,
		knowledge.NewSearcher(cfg.Data.KnowledgeDir, logger),
		scope.NewGate(),
		dispatcher,
		store,
		audit,
		logger,
	)

	healthManager := health.NewManager(serviceName, serviceVersion, logger)
	healthManager.AddChecker("chat_log", func(context.Context) health.CheckResult {
		if _, err := audit.List(1); err != nil {
			return health.CheckResult{Status: "unhealthy", Error: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy}
	})

	srv := server.New(
		cfg,
		pipeline,
		store,
		audit,
		settingsStore,
		auth.NewUserStore(cfg.Data.UsersPath, logger),
		auth.NewSessionManager(),
		report.NewGenerator(cfg.Data.KnowledgeDir, logger),
		healthManager,
		logger,
	)

	if cfg.Logging.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("reason", "context cancelled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// buildRegistry wires the configured providers: Gemini primary, OpenAI
// secondary. A missing key leaves that slot nil, which the dispatcher
// reports as not configured.
func buildRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*provider.Registry, error) {
	var primary, secondary provider.Provider

	if cfg.Providers.GeminiAPIKey != "" {
		p, err := provider.NewGeminiProvider(ctx, cfg.Providers.GeminiAPIKey, cfg.Providers.GeminiModel, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini provider: %w", err)
		}
		primary = p
	} else {
		logger.Warn("GEMINI_API_KEY not set, primary provider disabled")
	}

	if cfg.Providers.OpenAIAPIKey != "" {
		p, err := provider.NewOpenAIProvider(cfg.Providers.OpenAIAPIKey, cfg.Providers.OpenAIModel, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI provider: %w", err)
		}
		secondary = p
	} else {
		logger.Warn("OPENAI_API_KEY not set, secondary provider disabled")
	}

	return provider.NewRegistry(primary, secondary), nil
}
