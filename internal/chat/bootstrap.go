package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/generation"
	"github.com/smartfinance/smartfinance/internal/storage"
)

var (
	ErrMissingCredentials = errors.New("generation api key is not configured")
	ErrSecretsUnreadable  = errors.New("secrets could not be read")
)

type StatusLevel string

const (
	StatusOK      StatusLevel = "ok"
	StatusWarning StatusLevel = "warning"
	StatusError   StatusLevel = "error"
)

type StatusLine struct {
	Level StatusLevel `json:"level"`
	Text  string      `json:"text"`
}

// Startup is the outcome of the startup checks shown before the first turn.
type Startup struct {
	Model        string       `json:"model"`
	DatasetReady bool         `json:"dataset_ready"`
	Status       []StatusLine `json:"status"`
}

type BootstrapDeps struct {
	APIKey string
	// SecretsErr is the error from loading secrets files, if any.
	SecretsErr error
	Dataset    dataset.Accessor
	// Store, DatasetKey and DatasetPath enable fetching a missing dataset.
	Store       storage.ObjectStore
	DatasetKey  string
	DatasetPath string
	Client      generation.Client
	Logger      *slog.Logger
}

// Bootstrap runs the startup checks in order: credentials, dataset, model
// selection. Only a credentials problem is returned as an error; the
// returned Startup still carries the status lines gathered so far.
func Bootstrap(ctx context.Context, deps BootstrapDeps) (Startup, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var startup Startup

	if deps.SecretsErr != nil {
		startup.add(StatusError, "❌ Error leyendo secretos")
		return startup, fmt.Errorf("%w: %w", ErrSecretsUnreadable, deps.SecretsErr)
	}
	if strings.TrimSpace(deps.APIKey) == "" {
		startup.add(StatusError, "❌ Falta API Key en secrets")
		return startup, ErrMissingCredentials
	}
	startup.add(StatusOK, "✅ API Key: OK")

	if deps.Store != nil && deps.DatasetKey != "" {
		fetched, err := dataset.EnsureLocal(ctx, deps.Store, deps.DatasetKey, deps.DatasetPath)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "dataset fetch failed", "key", deps.DatasetKey, "error", err.Error())
		case fetched:
			logger.InfoContext(ctx, "dataset fetched from object store", "key", deps.DatasetKey, "path", deps.DatasetPath)
		}
	}
	if deps.Dataset != nil && deps.Dataset.Available() == nil {
		startup.DatasetReady = true
		startup.add(StatusOK, "✅ DB: Cargada")
	} else {
		startup.add(StatusWarning, "⚠️ Falta DB")
	}

	if deps.Client == nil {
		startup.add(StatusError, MessageNoModel)
		return startup, nil
	}
	model, err := generation.SelectModel(ctx, deps.Client)
	switch {
	case errors.Is(err, generation.ErrNoModels):
		logger.WarnContext(ctx, "no generation model available")
		startup.add(StatusError, MessageNoModel)
	case err != nil:
		logger.ErrorContext(ctx, "model listing failed", "error", err.Error())
		startup.add(StatusError, fmt.Sprintf("Error buscando modelos: %s", err))
	default:
		startup.Model = model
		startup.add(StatusOK, fmt.Sprintf("🧠 Modelo activo: %s", model))
	}
	return startup, nil
}

func (s *Startup) add(level StatusLevel, text string) {
	s.Status = append(s.Status, StatusLine{Level: level, Text: text})
}
