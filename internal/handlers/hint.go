package handlers

import (
	"log/slog"
	"net/http"

	"github.com/mwhitlock/silvertongue/internal/game"
)

// HintHandler dispenses hints for the current stage's win condition.
type HintHandler struct {
	orchestrator *game.Orchestrator
	logger       *slog.Logger
}

func NewHintHandler(orchestrator *game.Orchestrator, logger *slog.Logger) *HintHandler {
	return &HintHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *HintHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, h.logger, http.MethodPost)
		return
	}

	hint, err := h.orchestrator.RequestHint()
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, hint)
}
