package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/smartfinance/smartfinance/internal/auth"
	"github.com/smartfinance/smartfinance/internal/journal"
)

func handleStatus(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model":         deps.Startup.Model,
		"dataset_ready": deps.Startup.DatasetReady,
		"status":        deps.Startup.Status,
		"sessions":      deps.Sessions.Len(),
	})
}

func handleListJournal(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Journal == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "JOURNAL_NOT_CONFIGURED", "query journal is not configured", false, nil)
		return
	}
	if err := auth.Authorize(r.Context(), auth.RoleAuditor); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	limit := journal.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, map[string]any{"limit": raw})
			return
		}
		limit = journal.ClampLimit(parsed)
	}

	entries, err := deps.Journal.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "JOURNAL_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "limit": limit})
}
