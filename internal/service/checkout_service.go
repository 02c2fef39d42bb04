package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/cart"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/notify"
	"github.com/Lixing-Zhang/sweetheart-kart/internal/token"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
)

// OrderIDLength is the length of generated order ids
const OrderIDLength = 6

// Cart is the ledger state checkout reads and updates
type Cart interface {
	CheckoutSnapshot(couponID *string) (cart.Snapshot, bool)
	Clear()
}

// Dispatcher starts a best-effort notification for an order
type Dispatcher interface {
	Dispatch(ctx context.Context, summary models.OrderSummary) *notify.Task
}

// CheckoutService turns a cart into an accepted order
type CheckoutService struct {
	dispatcher Dispatcher
	logger     *slog.Logger

	mu  sync.Mutex
	src token.Source
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(dispatcher Dispatcher, src token.Source, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		dispatcher: dispatcher,
		src:        src,
		logger:     logger,
	}
}

// PlaceOrder validates the cart, assigns an order id and notifies the
// operator. The notification is awaited but its outcome never fails the
// order. An empty cart fails with ErrEmptyCart and is left untouched,
// including its coupon selection.
func (s *CheckoutService) PlaceOrder(ctx context.Context, c Cart, req models.OrderRequest) (*models.OrderResult, error) {
	// unknown coupon ids keep the current selection
	snap, ok := c.CheckoutSnapshot(req.CouponID)
	if !ok {
		return nil, ErrEmptyCart
	}

	summary := buildSummary(s.nextOrderID(), snap)

	task := s.dispatcher.Dispatch(context.WithoutCancel(ctx), summary)
	task.Wait()

	if req.ClearCart {
		c.Clear()
	}

	s.logger.Info("order placed",
		"order_id", summary.OrderID,
		"lines", len(summary.Lines),
		"final_total", summary.FinalTotal.String(),
		"coupon_applied", summary.AppliedCoupon != nil,
		"notified", task.Delivered(),
	)

	return &models.OrderResult{OrderID: summary.OrderID, Summary: summary}, nil
}

func (s *CheckoutService) nextOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token.Generate(s.src, OrderIDLength)
}

func buildSummary(orderID string, snap cart.Snapshot) models.OrderSummary {
	lines := make([]models.SummaryLine, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		lines = append(lines, models.SummaryLine{
			Name:     line.Dish.Name,
			Quantity: line.Quantity,
			Price:    line.Dish.Price,
		})
	}

	summary := models.OrderSummary{
		OrderID:    orderID,
		Lines:      lines,
		Subtotal:   snap.Totals.Subtotal,
		FinalTotal: snap.Totals.FinalTotal,
	}
	if snap.Coupon != nil {
		summary.AppliedCoupon = &models.AppliedCoupon{
			Code:     snap.Coupon.Code,
			Discount: snap.Coupon.Discount,
		}
	}
	return summary
}
