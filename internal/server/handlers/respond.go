package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jtomassoni/mmb-sub000/pkg/api"
)

// writeJSON сериализует body в ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeError отправляет стандартное тело ошибки.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, errText, message string) {
	writeJSON(w, logger, status, api.ErrorResponse{
		Error:   errText,
		Message: message,
	})
}
