package handlers

import (
	"net/http"
	"testing"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/cart"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/middleware"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/shopspring/decimal"
)

func TestCartHandler_SessionHeader(t *testing.T) {
	env := newTestEnv(t, 2)

	w := env.do(t, http.MethodGet, "/api/cart", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	id := w.Header().Get(middleware.SessionHeader)
	if id == "" {
		t.Fatal("expected a session id in the response")
	}

	w = env.do(t, http.MethodGet, "/api/cart", id, nil)
	if got := w.Header().Get(middleware.SessionHeader); got != id {
		t.Errorf("expected session %s to be reused, got %s", id, got)
	}
}

func TestCartHandler_Flow(t *testing.T) {
	env := newTestEnv(t, 2)
	sess := env.store.Create()

	steps := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
		wantLines      int
		wantSubtotal   string
	}{
		{"add omelette", http.MethodPost, "/api/cart/items", AddItemRequest{DishID: 1, Delta: 2}, http.StatusOK, 1, "56"},
		{"add tea", http.MethodPost, "/api/cart/items", AddItemRequest{DishID: 10, Delta: 1}, http.StatusOK, 2, "75.5"},
		{"decrement omelette", http.MethodPost, "/api/cart/items", AddItemRequest{DishID: 1, Delta: -1}, http.StatusOK, 2, "47.5"},
		{"set tea quantity", http.MethodPut, "/api/cart/items/10", SetQuantityRequest{Quantity: 3}, http.StatusOK, 2, "86.5"},
		{"set zero removes", http.MethodPut, "/api/cart/items/10", SetQuantityRequest{Quantity: 0}, http.StatusOK, 1, "28"},
		{"remove omelette", http.MethodDelete, "/api/cart/items/1", nil, http.StatusOK, 0, "0"},
		{"unknown dish", http.MethodPost, "/api/cart/items", AddItemRequest{DishID: 999, Delta: 1}, http.StatusNotFound, -1, ""},
		{"bad body", http.MethodPost, "/api/cart/items", "{not json", http.StatusBadRequest, -1, ""},
		{"bad dish id", http.MethodDelete, "/api/cart/items/abc", nil, http.StatusBadRequest, -1, ""},
	}

	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, sess.ID, tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.wantLines < 0 {
				return
			}

			var snap cart.Snapshot
			decode(t, w, &snap)
			if len(snap.Lines) != tt.wantLines {
				t.Errorf("expected %d lines, got %d", tt.wantLines, len(snap.Lines))
			}
			if snap.Totals.Subtotal.String() != tt.wantSubtotal {
				t.Errorf("expected subtotal %s, got %s", tt.wantSubtotal, snap.Totals.Subtotal.String())
			}
		})
	}
}

func TestCartHandler_SelectCoupon(t *testing.T) {
	env := newTestEnv(t, 2)
	sess := env.store.Create()
	sess.Ledger.AddOrUpdate(models.Dish{ID: 3, Name: "Kung Pao Chicken", Price: decimal.NewFromInt(48)}, 1)
	sess.Ledger.Offer(models.Coupon{ID: "c1", Code: "LOVEABC123", Discount: decimal.NewFromInt(20)})

	w := env.do(t, http.MethodPut, "/api/cart/coupon", sess.ID, SelectCouponRequest{CouponID: "c1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var snap cart.Snapshot
	decode(t, w, &snap)
	if snap.Coupon == nil || snap.Coupon.Code != "LOVEABC123" {
		t.Fatalf("expected coupon to be selected, got %+v", snap.Coupon)
	}
	if snap.Totals.FinalTotal.String() != "28" {
		t.Errorf("expected final total 28, got %s", snap.Totals.FinalTotal.String())
	}

	w = env.do(t, http.MethodPut, "/api/cart/coupon", sess.ID, SelectCouponRequest{CouponID: "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown coupon, got %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/cart/coupon", sess.ID, SelectCouponRequest{CouponID: ""})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 on deselect, got %d", w.Code)
	}
	snap = cart.Snapshot{}
	decode(t, w, &snap)
	if snap.Coupon != nil {
		t.Error("expected coupon to be deselected")
	}
}

func TestCartHandler_ClearIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 2)
	sess := env.store.Create()
	sess.Ledger.AddOrUpdate(models.Dish{ID: 7, Name: "Mango Pudding", Price: decimal.NewFromInt(18)}, 2)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodDelete, "/api/cart", sess.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("clear %d: expected status 200, got %d", i+1, w.Code)
		}
	}
	if !sess.Ledger.IsEmpty() {
		t.Error("expected empty cart after clear")
	}
}
