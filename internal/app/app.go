// Package app wires configuration into the running chat components shared
// by the API server and the console.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/smartfinance/smartfinance/internal/answer"
	"github.com/smartfinance/smartfinance/internal/chat"
	"github.com/smartfinance/smartfinance/internal/config"
	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/dataset/duckdb"
	"github.com/smartfinance/smartfinance/internal/dataset/sqlite"
	"github.com/smartfinance/smartfinance/internal/generation"
	"github.com/smartfinance/smartfinance/internal/journal"
	journalpostgres "github.com/smartfinance/smartfinance/internal/journal/postgres"
	"github.com/smartfinance/smartfinance/internal/nl2sql"
	"github.com/smartfinance/smartfinance/internal/storage"
	s3store "github.com/smartfinance/smartfinance/internal/storage/s3"
)

type App struct {
	Startup chat.Startup
	// Service is nil when startup failed on credentials.
	Service *chat.Service
	Dataset dataset.Accessor
	Journal journal.Store
	// JournalReader and JournalHealth are nil when no journal database is
	// configured.
	JournalReader journal.Reader
	JournalHealth func(context.Context) error

	closers []func() error
}

// New runs the startup checks and builds the chat service. When the
// credentials checks fail the returned App is non-nil and carries the status
// lines; the error then wraps chat.ErrMissingCredentials or
// chat.ErrSecretsUnreadable.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, secretsErr error) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &App{Journal: journal.Nop{}}

	accessor, err := NewAccessor(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	a.Dataset = accessor

	var store storage.ObjectStore
	if cfg.ObjectStore.Enabled {
		s, err := s3store.New(ctx, s3Config(cfg.ObjectStore))
		if err != nil {
			return nil, fmt.Errorf("initialize object store: %w", err)
		}
		store = s
	}

	var client generation.Client
	if strings.TrimSpace(cfg.Generation.APIKey) != "" {
		client, err = generation.New(generation.Config{
			Provider:    cfg.Generation.Provider,
			BaseURL:     cfg.Generation.BaseURL,
			APIKey:      cfg.Generation.APIKey,
			Temperature: cfg.Generation.Temperature,
			Timeout:     cfg.Generation.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize generation client: %w", err)
		}
	}

	startup, err := chat.Bootstrap(ctx, chat.BootstrapDeps{
		APIKey:      cfg.Generation.APIKey,
		SecretsErr:  secretsErr,
		Dataset:     accessor,
		Store:       store,
		DatasetKey:  cfg.Dataset.ObjectKey,
		DatasetPath: cfg.Dataset.Path,
		Client:      client,
		Logger:      logger,
	})
	a.Startup = startup
	if err != nil {
		return a, err
	}

	prompts, err := nl2sql.LoadPrompts(cfg.Prompt.Dir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	translator, err := nl2sql.NewTranslator(client, prompts)
	if err != nil {
		return nil, err
	}
	answerer, err := answer.New(accessor, client, prompts)
	if err != nil {
		return nil, err
	}

	if cfg.Journal.DSN != "" {
		db, err := journalpostgres.Open(ctx, journalpostgres.DBConfig{
			DSN:             cfg.Journal.DSN,
			MaxOpenConns:    cfg.Journal.MaxOpenConns,
			MaxIdleConns:    cfg.Journal.MaxIdleConns,
			ConnMaxIdleTime: cfg.Journal.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Journal.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open journal db: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		repo := journalpostgres.NewRepository(db)
		a.Journal = repo
		a.JournalReader = repo
		a.JournalHealth = repo.HealthCheck
	}

	a.Service, err = chat.NewService(chat.ServiceDeps{
		Model:      startup.Model,
		Dataset:    accessor,
		Translator: translator,
		Answerer:   answerer,
		Journal:    a.Journal,
		Logger:     logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// NewAccessor picks the dataset engine named in cfg.
func NewAccessor(cfg config.DatasetConfig) (dataset.Accessor, error) {
	switch cfg.Engine {
	case config.EngineSQLite, "":
		return sqlite.New(cfg.Path), nil
	case config.EngineDuckDB:
		return duckdb.New(cfg.Path, cfg.TableName), nil
	default:
		return nil, fmt.Errorf("unsupported dataset engine %q", cfg.Engine)
	}
}

// NewObjectStore builds the S3 store used for dataset distribution.
func NewObjectStore(ctx context.Context, cfg config.ObjectStoreConfig, autoCreate bool) (*s3store.Store, error) {
	s3cfg := s3Config(cfg)
	s3cfg.AutoCreateBucket = autoCreate
	return s3store.New(ctx, s3cfg)
}

func s3Config(cfg config.ObjectStoreConfig) s3store.Config {
	return s3store.Config{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UseSSL:          cfg.UseSSL,
		Prefix:          cfg.Prefix,
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
