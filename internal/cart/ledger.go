// Package cart holds the per-session cart state: lines, offered coupons and
// the currently selected coupon.
package cart

import (
	"sort"
	"sync"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/shopspring/decimal"
)

// Ledger owns the cart lines and coupon selection of one session.
// All operations are synchronous. The mutex exists because coupons are
// offered from verification goroutines while the cart is in use.
type Ledger struct {
	mu       sync.RWMutex
	lines    map[int64]*models.CartLine
	offered  map[string]models.Coupon
	order    []string // offer order of coupon ids
	selected string
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		lines:   make(map[int64]*models.CartLine),
		offered: make(map[string]models.Coupon),
	}
}

// AddOrUpdate adds delta to the dish's quantity, creating the line if needed.
// A resulting quantity <= 0 removes the line.
func (l *Ledger) AddOrUpdate(dish models.Dish, delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	qty := delta
	if line, ok := l.lines[dish.ID]; ok {
		qty += line.Quantity
	}
	l.setLocked(dish, qty)
}

// SetQuantity sets the dish's quantity to an absolute value.
// A quantity <= 0 removes the line.
func (l *Ledger) SetQuantity(dish models.Dish, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(dish, quantity)
}

func (l *Ledger) setLocked(dish models.Dish, quantity int) {
	if quantity <= 0 {
		delete(l.lines, dish.ID)
		return
	}
	l.lines[dish.ID] = &models.CartLine{Dish: dish, Quantity: quantity}
}

// Remove deletes the line for dishID. Removing a missing line is a no-op.
func (l *Ledger) Remove(dishID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lines, dishID)
}

// Clear empties all lines and drops the coupon selection.
// Offered coupons stay available.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = make(map[int64]*models.CartLine)
	l.selected = ""
}

// Offer makes a coupon available for selection
func (l *Ledger) Offer(coupon models.Coupon) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.offered[coupon.ID]; !exists {
		l.order = append(l.order, coupon.ID)
	}
	l.offered[coupon.ID] = coupon
}

// Offered returns the offered coupons in the order they were offered
func (l *Ledger) Offered() []models.Coupon {
	l.mu.RLock()
	defer l.mu.RUnlock()

	coupons := make([]models.Coupon, 0, len(l.order))
	for _, id := range l.order {
		coupons = append(coupons, l.offered[id])
	}
	return coupons
}

// SelectCoupon applies the offered coupon with the given id. An empty id
// deselects. An id that was never offered leaves the current selection
// unchanged. It reports whether the selection now equals id.
func (l *Ledger) SelectCoupon(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selectLocked(id)
}

func (l *Ledger) selectLocked(id string) bool {
	if id == "" {
		l.selected = ""
		return true
	}
	if _, ok := l.offered[id]; !ok {
		return false
	}
	l.selected = id
	return true
}

// SelectedCoupon returns the applied coupon, if any
func (l *Ledger) SelectedCoupon() (models.Coupon, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selectedLocked()
}

func (l *Ledger) selectedLocked() (models.Coupon, bool) {
	if l.selected == "" {
		return models.Coupon{}, false
	}
	c, ok := l.offered[l.selected]
	return c, ok
}

// Lines returns a copy of the cart lines ordered by dish id
func (l *Ledger) Lines() []models.CartLine {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.linesLocked()
}

func (l *Ledger) linesLocked() []models.CartLine {
	lines := make([]models.CartLine, 0, len(l.lines))
	for _, line := range l.lines {
		lines = append(lines, *line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Dish.ID < lines[j].Dish.ID
	})
	return lines
}

// IsEmpty reports whether the cart has no purchasable lines
func (l *Ledger) IsEmpty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines) == 0
}

// Totals computes subtotal and final total over the current state
func (l *Ledger) Totals() models.Totals {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalsLocked()
}

func (l *Ledger) totalsLocked() models.Totals {
	subtotal := decimal.Zero
	for _, line := range l.lines {
		subtotal = subtotal.Add(line.Total())
	}

	discount := decimal.Zero
	if c, ok := l.selectedLocked(); ok {
		discount = c.Discount
	}

	return models.Totals{
		Subtotal:   subtotal,
		Discount:   discount,
		FinalTotal: decimal.Max(decimal.Zero, subtotal.Sub(discount)),
	}
}

// Snapshot is a consistent view of the ledger taken under one lock
type Snapshot struct {
	Lines   []models.CartLine `json:"lines"`
	Totals  models.Totals     `json:"totals"`
	Coupon  *models.Coupon    `json:"selectedCoupon,omitempty"`
	Offered []models.Coupon   `json:"offeredCoupons"`
}

// Snapshot returns lines, totals and coupon state read atomically
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// CheckoutSnapshot prepares the ledger for an order under one lock. An empty
// ledger is left untouched and reported with ok=false. Otherwise couponID,
// when set, is selected with SelectCoupon semantics before the snapshot.
func (l *Ledger) CheckoutSnapshot(couponID *string) (snap Snapshot, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.lines) == 0 {
		return Snapshot{}, false
	}
	if couponID != nil {
		l.selectLocked(*couponID)
	}
	return l.snapshotLocked(), true
}

func (l *Ledger) snapshotLocked() Snapshot {
	snap := Snapshot{
		Lines:   l.linesLocked(),
		Totals:  l.totalsLocked(),
		Offered: make([]models.Coupon, 0, len(l.order)),
	}
	if c, ok := l.selectedLocked(); ok {
		snap.Coupon = &c
	}
	for _, id := range l.order {
		snap.Offered = append(snap.Offered, l.offered[id])
	}
	return snap
}
