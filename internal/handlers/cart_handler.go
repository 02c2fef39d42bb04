package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/repository"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/service"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/session"
)

// CartHandler exposes the session's cart ledger
type CartHandler struct {
	dishes *service.DishService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(dishes *service.DishService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		dishes: dishes,
		logger: logger,
	}
}

// AddItemRequest adjusts a line by delta
type AddItemRequest struct {
	DishID int64 `json:"dishId"`
	Delta  int   `json:"delta"`
}

// SetQuantityRequest sets an absolute quantity
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SelectCouponRequest selects an offered coupon; an empty id deselects
type SelectCouponRequest struct {
	CouponID string `json:"couponId"`
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, sess.Ledger.Snapshot(), h.logger)
}

// AddItem handles POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode add item request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	dish, ok := h.lookup(w, r, req.DishID)
	if !ok {
		return
	}

	sess.Ledger.AddOrUpdate(*dish, req.Delta)
	h.respond(w, sess)
}

// SetQuantity handles PUT /api/cart/items/{dishId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseDishID(w, r, h.logger)
	if !ok {
		return
	}

	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode set quantity request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	dish, ok := h.lookup(w, r, id)
	if !ok {
		return
	}

	sess.Ledger.SetQuantity(*dish, req.Quantity)
	h.respond(w, sess)
}

// RemoveItem handles DELETE /api/cart/items/{dishId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	id, ok := parseDishID(w, r, h.logger)
	if !ok {
		return
	}

	sess.Ledger.Remove(id)
	h.respond(w, sess)
}

// ClearCart handles DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	sess.Ledger.Clear()
	h.respond(w, sess)
}

// SelectCoupon handles PUT /api/cart/coupon
func (h *CartHandler) SelectCoupon(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.logger)
	if !ok {
		return
	}

	var req SelectCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode select coupon request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.logger)
		return
	}

	if !sess.Ledger.SelectCoupon(req.CouponID) {
		h.logger.Info("coupon not offered to session", "session_id", sess.ID, "coupon_id", req.CouponID)
		WriteError(w, http.StatusNotFound, "Coupon not found", h.logger)
		return
	}

	h.respond(w, sess)
}

func (h *CartHandler) lookup(w http.ResponseWriter, r *http.Request, id int64) (*models.Dish, bool) {
	dish, err := h.dishes.GetDish(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDishNotFound) {
			WriteError(w, http.StatusNotFound, "Dish not found", h.logger)
			return nil, false
		}
		h.logger.Error("failed to get dish", "dishId", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.logger)
		return nil, false
	}
	return dish, true
}

func (h *CartHandler) respond(w http.ResponseWriter, sess *session.Session) {
	WriteJSON(w, http.StatusOK, sess.Ledger.Snapshot(), h.logger)
}
