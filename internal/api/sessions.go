package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/smartfinance/smartfinance/internal/auth"
	"github.com/smartfinance/smartfinance/internal/chat"
)

const maxMessageBytes = 16 << 10

var errNoModel = errors.New(chat.MessageNoModel)

type sessionResponse struct {
	ID        string      `json:"id"`
	Model     string      `json:"model"`
	State     chat.State  `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	Turns     []chat.Turn `json:"turns"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	SessionID string    `json:"session_id"`
	Turn      chat.Turn `json:"turn"`
}

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat service is not configured", false, nil)
		return
	}
	if err := auth.Authorize(r.Context(), auth.RoleAnalyst); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	session := deps.Chat.NewSession()
	deps.Sessions.Add(session)
	w.Header().Set("Location", "/v1/sessions/"+session.ID())
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if err := auth.Authorize(r.Context(), auth.RoleAnalyst); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}
	session, ok := lookupSession(deps, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func handlePostMessage(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Chat == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CHAT_NOT_CONFIGURED", "chat service is not configured", false, nil)
		return
	}
	if err := auth.Authorize(r.Context(), auth.RoleAnalyst); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}
	session, ok := lookupSession(deps, w, r)
	if !ok {
		return
	}

	var request messageRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid message request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Text) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TEXT_REQUIRED", "text is required", false, nil)
		return
	}

	turn, err := deps.Chat.Submit(r.Context(), session, request.Text)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrSessionBusy):
			writeError(r.Context(), w, http.StatusConflict, "SESSION_BUSY", err.Error(), true, map[string]any{"session_id": session.ID()})
		case errors.Is(err, chat.ErrEmptyInput):
			writeError(r.Context(), w, http.StatusBadRequest, "TEXT_REQUIRED", "text is required", false, nil)
		default:
			writeError(r.Context(), w, http.StatusInternalServerError, "SUBMIT_FAILED", err.Error(), true, nil)
		}
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{SessionID: session.ID(), Turn: turn})
}

func lookupSession(deps Dependencies, w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	session, err := deps.Sessions.Get(id)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error(), false, map[string]any{"session_id": id})
		return nil, false
	}
	return session, true
}

func toSessionResponse(session *chat.Session) sessionResponse {
	return sessionResponse{
		ID:        session.ID(),
		Model:     session.Model(),
		State:     session.State(),
		CreatedAt: session.CreatedAt(),
		Turns:     session.Turns(),
	}
}
