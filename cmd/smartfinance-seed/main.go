package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartfinance/smartfinance/internal/app"
	"github.com/smartfinance/smartfinance/internal/config"
	"github.com/smartfinance/smartfinance/internal/demo/seed"
	"github.com/smartfinance/smartfinance/internal/observability"
	"github.com/smartfinance/smartfinance/internal/storage"
)

func main() {
	_ = config.LoadDotEnv()
	cfg, err := config.LoadFromEnv("smartfinance-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	seedCfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		logger.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store storage.ObjectStore
	if seedCfg.Upload {
		if !cfg.ObjectStore.Enabled {
			logger.Error("upload requested but SMARTFINANCE_OBJECTSTORE_ENABLED is false")
			os.Exit(1)
		}
		s3, err := app.NewObjectStore(ctx, cfg.ObjectStore, true)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		store = s3
	}

	result, err := seed.Run(ctx, seedCfg, store, logger)
	if err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed completed",
		slog.String("path", result.Path),
		slog.Int("rows", result.Rows),
		slog.String("object_key", result.ObjectKey),
	)
}
