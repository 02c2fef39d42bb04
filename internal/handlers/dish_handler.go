package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/repository"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/service"
	"github.com/go-chi/chi/v5"
)

// DishHandler handles dish catalog HTTP requests
type DishHandler struct {
	service *service.DishService
	logger  *slog.Logger
}

// NewDishHandler creates a new dish handler
func NewDishHandler(service *service.DishService, logger *slog.Logger) *DishHandler {
	return &DishHandler{
		service: service,
		logger:  logger,
	}
}

// ListDishes handles GET /api/dish
func (h *DishHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.service.ListDishes(r.Context())
	if err != nil {
		h.logger.Error("failed to list dishes", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, dishes, h.logger)
}

// GetDish handles GET /api/dish/{dishId}
// - 200: successful operation
// - 400: Invalid ID supplied
// - 404: Dish not found
func (h *DishHandler) GetDish(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDishID(w, r, h.logger)
	if !ok {
		return
	}

	dish, err := h.service.GetDish(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDishNotFound) {
			h.logger.Info("dish not found", "dishId", id)
			WriteError(w, http.StatusNotFound, "Dish not found", h.logger)
			return
		}

		h.logger.Error("failed to get dish", "dishId", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, dish, h.logger)
}

func parseDishID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	raw := chi.URLParam(r, "dishId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if raw == "" || err != nil {
		logger.Warn("invalid dish ID", "dishId", raw)
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", logger)
		return 0, false
	}
	return id, true
}
