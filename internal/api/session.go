package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/tripalhq/tripal/internal/agent"
	"github.com/tripalhq/tripal/internal/log"
	"github.com/tripalhq/tripal/internal/session"
)

// tokenStore is the subset of the session store the transport needs.
type tokenStore interface {
	CreateToken(ctx context.Context, token string) (int64, error)
	Ping(ctx context.Context) error
}

// sessionHandler issues session tokens and drops finished sessions.
type sessionHandler struct {
	store    tokenStore
	sessions *agent.Sessions
	logger   log.Logger
}

// SessionResponse is the body returned when a session is created.
type SessionResponse struct {
	Token string `json:"token"`
}

// create issues a fresh session token and persists it, so conversation
// rows recorded later can reference it.
func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	token := uuid.New().String()

	if _, err := h.store.CreateToken(r.Context(), token); err != nil {
		if errors.Is(err, session.ErrDuplicateToken) {
			// Practically unreachable with random UUIDs.
			writeError(w, http.StatusConflict, "token_conflict", "session token already exists", h.logger)
			return
		}
		h.logger.Error("failed to create session token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session", h.logger)
		return
	}

	h.logger.Info("session created", "token", token)
	writeJSON(w, http.StatusCreated, SessionResponse{Token: token}, h.logger)
}

// remove drops the in-memory planner for the token. The persisted
// conversation history is kept.
func (h *sessionHandler) remove(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_token", "session token is required", h.logger)
		return
	}

	h.sessions.Remove(token)
	w.WriteHeader(http.StatusNoContent)
}
