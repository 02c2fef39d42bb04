package models

import "github.com/shopspring/decimal"

// Coupon is a session-scoped discount token. Discount is an absolute amount.
type Coupon struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

// VerificationResult is the outcome of a gesture check on one image
type VerificationResult struct {
	Verdict    bool `json:"verdict"`
	Detections int  `json:"detections"`
}
