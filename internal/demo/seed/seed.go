// Package seed builds a synthetic CFO_SAP_PYL dataset for local runs and
// demos.
package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/smartfinance/smartfinance/internal/storage"
)

type Result struct {
	Path      string
	Rows      int
	ObjectKey string
}

// Run generates the dataset described by cfg, writes it locally and, when
// cfg.Upload is set, publishes it to store.
func Run(ctx context.Context, cfg Config, store storage.ObjectStore, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rows := NewGenerator(cfg.Seed, cfg.StartYear, cfg.Years).Rows()
	var err error
	switch cfg.Format {
	case FormatParquet:
		err = WriteParquet(cfg.OutputPath, rows)
	case FormatSQLite:
		err = WriteSQLite(ctx, cfg.OutputPath, cfg.TableName, rows)
	default:
		err = fmt.Errorf("unsupported format %q", cfg.Format)
	}
	if err != nil {
		return Result{}, err
	}
	result := Result{Path: cfg.OutputPath, Rows: len(rows)}
	logger.Info("dataset written",
		slog.String("path", cfg.OutputPath),
		slog.String("format", cfg.Format),
		slog.Int("rows", len(rows)),
	)

	if !cfg.Upload {
		return result, nil
	}
	if store == nil {
		return result, fmt.Errorf("upload requested but no object store configured")
	}
	key, err := Upload(ctx, store, cfg.TableName, cfg.OutputPath)
	if err != nil {
		return result, err
	}
	result.ObjectKey = key
	logger.Info("dataset uploaded", slog.String("object_key", key))
	return result, nil
}

// Upload publishes the file at path under the dataset key for tableName.
func Upload(ctx context.Context, store storage.ObjectStore, tableName, path string) (string, error) {
	key, err := storage.BuildDatasetKey(tableName, filepath.Base(path))
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat dataset: %w", err)
	}

	if _, err := store.Put(ctx, key, file, info.Size(), storage.PutOptions{ContentType: storage.ContentTypeFor(path), Table: tableName}); err != nil {
		return "", fmt.Errorf("upload dataset %q: %w", key, err)
	}
	return key, nil
}
