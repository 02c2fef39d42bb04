package models

import "github.com/shopspring/decimal"

// SummaryLine is one cart entry as it appears in an order summary
type SummaryLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// AppliedCoupon is the coupon used for an order, if any
type AppliedCoupon struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// OrderSummary is built at checkout and handed to the notification dispatcher
type OrderSummary struct {
	OrderID       string          `json:"orderId"`
	Lines         []SummaryLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	FinalTotal    decimal.Decimal `json:"finalTotal"`
	AppliedCoupon *AppliedCoupon  `json:"appliedCoupon,omitempty"`
}

// OrderRequest represents an incoming checkout request
type OrderRequest struct {
	CouponID  *string `json:"couponId,omitempty"`
	ClearCart bool    `json:"clearCart,omitempty"`
}

// OrderResult is returned to the caller once an order is accepted
type OrderResult struct {
	OrderID string       `json:"orderId"`
	Summary OrderSummary `json:"summary"`
}
