package handlers

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler provides health check endpoint
type HealthHandler struct {
	logger *slog.Logger
	stats  func() map[string]interface{}
}

// NewHealthHandler creates a new health handler. stats may be nil.
func NewHealthHandler(logger *slog.Logger, stats func() map[string]interface{}) *HealthHandler {
	return &HealthHandler{
		logger: logger,
		stats:  stats,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ServeHTTP handles health check requests
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
	}
	if h.stats != nil {
		response.Details = h.stats()
	}

	WriteJSON(w, http.StatusOK, response, h.logger)
}
