package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/middleware"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("failed to encode error response", "error", err)
	}
}

// requireSession fetches the request's session or writes a 500
func requireSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*session.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		logger.Error("no session on request", "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, "Internal server error", logger)
		return nil, false
	}
	return sess, true
}
