package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/smartfinance/smartfinance/internal/chat"
	"github.com/smartfinance/smartfinance/internal/config"
	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/journal"
	"github.com/smartfinance/smartfinance/internal/observability"
)

type ReadinessCheck func(ctx context.Context) error

// ChatService is the conversation surface used by the session routes.
type ChatService interface {
	NewSession() *chat.Session
	Submit(ctx context.Context, session *chat.Session, input string) (chat.Turn, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Chat              ChatService
	Sessions          *chat.Registry
	Startup           chat.Startup
	Journal           journal.Reader
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	if deps.Sessions == nil {
		deps.Sessions = chat.NewRegistry()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := map[string]http.HandlerFunc{
		"GET /v1/status": func(w http.ResponseWriter, r *http.Request) {
			handleStatus(deps, w, r)
		},
		"POST /v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			handleCreateSession(deps, w, r)
		},
		"GET /v1/sessions/{id}": func(w http.ResponseWriter, r *http.Request) {
			handleGetSession(deps, w, r)
		},
		"POST /v1/sessions/{id}/messages": func(w http.ResponseWriter, r *http.Request) {
			handlePostMessage(deps, w, r)
		},
		"GET /v1/journal": func(w http.ResponseWriter, r *http.Request) {
			handleListJournal(deps, w, r)
		},
	}
	for pattern, handlerFunc := range protected {
		mux.Handle(pattern, protect(cfg, deps, handlerFunc))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	if len(cfg.CORS.AllowedOrigins) > 0 {
		middlewares = append([]func(http.Handler) http.Handler{corsMiddleware(cfg.CORS.AllowedOrigins)}, middlewares...)
	}
	return chain(mux, middlewares...)
}

func protect(cfg config.Config, deps Dependencies, next http.Handler) http.Handler {
	if !cfg.Auth.Required {
		return next
	}
	if deps.AuthMiddleware == nil {
		if deps.Logger != nil {
			deps.Logger.Error("auth required but auth middleware missing")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
		})
	}
	return deps.AuthMiddleware(next)
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
	})
	return c.Handler
}

// CheckDataset reports the dataset file as a readiness dependency.
func CheckDataset(accessor dataset.Accessor) ReadinessCheck {
	return func(_ context.Context) error {
		if accessor == nil {
			return dataset.ErrUnavailable
		}
		return accessor.Available()
	}
}

// CheckModel fails while no generation model has been selected.
func CheckModel(startup chat.Startup) ReadinessCheck {
	return func(_ context.Context) error {
		if startup.Model == "" {
			return errNoModel
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
