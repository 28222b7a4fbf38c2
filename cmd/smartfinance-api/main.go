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

	"github.com/smartfinance/smartfinance/internal/api"
	"github.com/smartfinance/smartfinance/internal/app"
	"github.com/smartfinance/smartfinance/internal/auth"
	"github.com/smartfinance/smartfinance/internal/chat"
	"github.com/smartfinance/smartfinance/internal/config"
	"github.com/smartfinance/smartfinance/internal/observability"
)

func main() {
	secretsErr := config.LoadDotEnv()
	cfg, err := config.LoadFromEnv("smartfinance-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, secretsErr)
	if err != nil {
		if application != nil {
			for _, line := range application.Startup.Status {
				logger.Error("startup check failed", slog.String("status", line.Text))
			}
		}
		logger.Error("failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = application.Close() }()
	for _, line := range application.Startup.Status {
		logger.Info("startup check", slog.String("level", string(line.Level)), slog.String("status", line.Text))
	}

	deps := api.Dependencies{
		Logger:  logger,
		Chat:    application.Service,
		Startup: application.Startup,
		Journal: application.JournalReader,
		Readiness: api.CombineReadinessChecks(
			api.CheckDataset(application.Dataset),
			api.CheckModel(application.Startup),
			application.JournalHealth,
		),
		DependencyTimeout: time.Second,
		Sessions: chat.NewRegistryWithConfig(chat.RegistryConfig{
			IdleTTL:     cfg.Sessions.IdleTTL,
			MaxSessions: cfg.Sessions.MaxSessions,
		}),
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
