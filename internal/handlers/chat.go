package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mwhitlock/silvertongue/internal/game"
	"github.com/mwhitlock/silvertongue/pkg/chat"
)

// ChatHandler processes one player turn per request.
type ChatHandler struct {
	orchestrator *game.Orchestrator
	logger       *slog.Logger
}

func NewChatHandler(orchestrator *game.Orchestrator, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, h.logger, http.MethodPost)
		return
	}

	var request chat.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body. Expected JSON with 'message' field.",
		})
		return
	}

	h.logger.Info("Chat turn received",
		"remote_addr", r.RemoteAddr,
		"message_len", len(request.Message))

	response, err := h.orchestrator.ProcessTurn(r.Context(), request.Message)
	if err != nil {
		writeGameError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}
