package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	checkout *service.CheckoutService
	log      *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(checkout *service.CheckoutService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		checkout: checkout,
		log:      log,
	}
}

// PlaceOrder handles POST /api/order
// The body is optional; couponId selects an offered coupon first and
// clearCart empties the cart after the order is accepted.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r, h.log)
	if !ok {
		return
	}

	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.log.Warn("failed to decode order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	result, err := h.checkout.PlaceOrder(r.Context(), sess.Ledger, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			h.log.Info("order rejected", "session_id", sess.ID, "reason", err)
			WriteError(w, http.StatusBadRequest, "Cart is empty", h.log)
		default:
			h.log.Error("failed to place order", "session_id", sess.ID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result, h.log)
}
