package models

import "github.com/shopspring/decimal"

// Dish represents a menu item that can be added to a cart
type Dish struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

// CartLine is a single dish entry in a cart. Quantity is always positive
// while the line is held by a ledger.
type CartLine struct {
	Dish     Dish `json:"dish"`
	Quantity int  `json:"quantity"`
}

// Total returns price x quantity for the line
func (l CartLine) Total() decimal.Decimal {
	return l.Dish.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals holds the computed amounts of a cart
type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	Discount   decimal.Decimal `json:"discount"`
	FinalTotal decimal.Decimal `json:"finalTotal"`
}
