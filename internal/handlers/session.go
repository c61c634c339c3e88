package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mwhitlock/silvertongue/internal/game"
)

// SessionHandler serves the session status endpoint and the reset
// endpoint. Register it at both /v1/session and /v1/session/.
type SessionHandler struct {
	orchestrator *game.Orchestrator
	logger       *slog.Logger
}

func NewSessionHandler(orchestrator *game.Orchestrator, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/reset") {
		h.handleReset(w, r)
		return
	}
	h.handleStatus(w, r)
}

func (h *SessionHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, h.logger, http.MethodGet)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.orchestrator.Progress())
}

func (h *SessionHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, h.logger, http.MethodPost)
		return
	}

	progress := h.orchestrator.Reset()
	h.logger.Info("Session reset",
		"session_id", progress.SessionID,
		"remote_addr", r.RemoteAddr)

	writeJSON(w, h.logger, http.StatusOK, progress)
}
