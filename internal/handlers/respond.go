package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mwhitlock/silvertongue/internal/game"
)

// ErrorResponse is the JSON body for all error replies. Code carries
// a stable machine-readable reason for game-rule rejections.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding response", "error", err)
	}
}

// writeGameError maps orchestrator errors onto HTTP. Rule violations
// surface as 400 with their code; anything else is a 500.
func writeGameError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var ce *game.ClientError
	if errors.As(err, &ce) {
		writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{
			Error: ce.Message,
			Code:  ce.Code,
		})
		return
	}
	logger.Error("Unexpected game error", "error", err)
	writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
	})
}

func writeMethodNotAllowed(w http.ResponseWriter, logger *slog.Logger, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, logger, http.StatusMethodNotAllowed, ErrorResponse{
		Error: "Method not allowed. Only " + allowed + " is supported.",
	})
}
