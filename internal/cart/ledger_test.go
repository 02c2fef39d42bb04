package cart

import (
	"sync"
	"testing"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dish(id int64, price int64) models.Dish {
	return models.Dish{ID: id, Name: "dish", Price: decimal.NewFromInt(price)}
}

func coupon(id string, discount int64) models.Coupon {
	return models.Coupon{ID: id, Code: "LOVE" + id, Discount: decimal.NewFromInt(discount)}
}

func TestLedger_Totals(t *testing.T) {
	tests := []struct {
		name         string
		price        int64
		qty          int
		discount     int64 // 0 means no coupon
		wantSubtotal int64
		wantFinal    int64
	}{
		{name: "no coupon", price: 20, qty: 2, wantSubtotal: 40, wantFinal: 40},
		{name: "coupon applied", price: 20, qty: 2, discount: 15, wantSubtotal: 40, wantFinal: 25},
		{name: "discount exceeds subtotal clamps to zero", price: 10, qty: 1, discount: 30, wantSubtotal: 10, wantFinal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			l.AddOrUpdate(dish(1, tt.price), tt.qty)
			if tt.discount > 0 {
				l.Offer(coupon("c1", tt.discount))
				require.True(t, l.SelectCoupon("c1"))
			}

			totals := l.Totals()
			assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(tt.wantSubtotal)), "subtotal = %s", totals.Subtotal)
			assert.True(t, totals.FinalTotal.Equal(decimal.NewFromInt(tt.wantFinal)), "final = %s", totals.FinalTotal)
			assert.False(t, totals.FinalTotal.IsNegative())
		})
	}
}

func TestLedger_SubtotalSumsLines(t *testing.T) {
	l := NewLedger()
	l.AddOrUpdate(dish(1, 20), 2)
	l.AddOrUpdate(models.Dish{ID: 2, Price: decimal.RequireFromString("12.5")}, 3)
	l.AddOrUpdate(dish(3, 7), 1)

	totals := l.Totals()
	assert.Equal(t, "84.5", totals.Subtotal.String())
	assert.Equal(t, "84.5", totals.FinalTotal.String())
	assert.True(t, totals.Discount.IsZero())
}

func TestLedger_AddOrUpdate(t *testing.T) {
	l := NewLedger()
	d := dish(1, 20)

	l.AddOrUpdate(d, 1)
	l.AddOrUpdate(d, 2)
	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)

	l.AddOrUpdate(d, -3)
	assert.Empty(t, l.Lines(), "zero quantity line must be removed")
	assert.True(t, l.IsEmpty())

	l.AddOrUpdate(d, -1)
	assert.Empty(t, l.Lines(), "negative delta on missing line must not create it")
}

func TestLedger_SetQuantity(t *testing.T) {
	l := NewLedger()
	d := dish(1, 20)

	l.SetQuantity(d, 4)
	require.Len(t, l.Lines(), 1)
	assert.Equal(t, 4, l.Lines()[0].Quantity)

	l.SetQuantity(d, 0)
	assert.Empty(t, l.Lines())

	l.SetQuantity(d, -2)
	assert.Empty(t, l.Lines())
}

func TestLedger_Remove(t *testing.T) {
	l := NewLedger()
	l.AddOrUpdate(dish(1, 20), 1)
	l.AddOrUpdate(dish(2, 10), 1)

	l.Remove(1)
	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Dish.ID)

	l.Remove(99)
	assert.Len(t, l.Lines(), 1)
}

func TestLedger_Clear(t *testing.T) {
	l := NewLedger()
	l.AddOrUpdate(dish(1, 20), 2)
	l.Offer(coupon("c1", 10))
	require.True(t, l.SelectCoupon("c1"))

	l.Clear()
	assert.True(t, l.IsEmpty())
	_, selected := l.SelectedCoupon()
	assert.False(t, selected)
	assert.Len(t, l.Offered(), 1, "offered coupons survive a clear")

	// clearing an empty cart is a no-op
	l.Clear()
	assert.True(t, l.IsEmpty())
	assert.True(t, l.Totals().FinalTotal.IsZero())
}

func TestLedger_SelectCoupon(t *testing.T) {
	l := NewLedger()
	l.AddOrUpdate(dish(1, 50), 1)
	l.Offer(coupon("a", 10))
	l.Offer(coupon("b", 20))

	require.True(t, l.SelectCoupon("a"))
	c, ok := l.SelectedCoupon()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID)

	t.Run("unknown id keeps previous selection", func(t *testing.T) {
		assert.False(t, l.SelectCoupon("missing"))
		c, ok := l.SelectedCoupon()
		require.True(t, ok)
		assert.Equal(t, "a", c.ID)
	})

	t.Run("switching replaces the selection", func(t *testing.T) {
		require.True(t, l.SelectCoupon("b"))
		assert.Equal(t, "30", l.Totals().FinalTotal.String())
	})

	t.Run("empty id deselects", func(t *testing.T) {
		require.True(t, l.SelectCoupon(""))
		_, ok := l.SelectedCoupon()
		assert.False(t, ok)
		assert.Equal(t, "50", l.Totals().FinalTotal.String())
	})
}

func TestLedger_OfferedKeepsOrder(t *testing.T) {
	l := NewLedger()
	l.Offer(coupon("x", 10))
	l.Offer(coupon("y", 11))
	l.Offer(coupon("x", 10))

	offered := l.Offered()
	require.Len(t, offered, 2)
	assert.Equal(t, "x", offered[0].ID)
	assert.Equal(t, "y", offered[1].ID)
}

func TestLedger_Snapshot(t *testing.T) {
	l := NewLedger()
	l.AddOrUpdate(dish(2, 5), 1)
	l.AddOrUpdate(dish(1, 20), 2)
	l.Offer(coupon("c", 15))
	require.True(t, l.SelectCoupon("c"))

	snap := l.Snapshot()
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, int64(1), snap.Lines[0].Dish.ID)
	require.NotNil(t, snap.Coupon)
	assert.Equal(t, "c", snap.Coupon.ID)
	assert.Equal(t, "45", snap.Totals.Subtotal.String())
	assert.Equal(t, "30", snap.Totals.FinalTotal.String())
	assert.Len(t, snap.Offered, 1)
}

func TestLedger_ConcurrentOffers(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.Offer(coupon(string(rune('A'+n%26))+string(rune('a'+n/26)), 10))
			l.AddOrUpdate(dish(int64(n%5), 1), 1)
			_ = l.Totals()
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Offered(), 50)
	assert.Equal(t, "50", l.Totals().Subtotal.String())
}

func TestLedger_CheckoutSnapshot(t *testing.T) {
	t.Run("empty ledger is untouched", func(t *testing.T) {
		l := NewLedger()
		l.Offer(coupon("c1", 10))
		id := "c1"

		_, ok := l.CheckoutSnapshot(&id)

		assert.False(t, ok)
		_, selected := l.SelectedCoupon()
		assert.False(t, selected)
	})

	t.Run("selects coupon before snapshot", func(t *testing.T) {
		l := NewLedger()
		l.AddOrUpdate(dish(1, 20), 2)
		l.Offer(coupon("c1", 15))
		id := "c1"

		snap, ok := l.CheckoutSnapshot(&id)

		require.True(t, ok)
		require.NotNil(t, snap.Coupon)
		assert.Equal(t, "c1", snap.Coupon.ID)
		assert.Equal(t, "25", snap.Totals.FinalTotal.String())
	})

	t.Run("unknown coupon keeps selection", func(t *testing.T) {
		l := NewLedger()
		l.AddOrUpdate(dish(1, 20), 1)
		l.Offer(coupon("c1", 5))
		require.True(t, l.SelectCoupon("c1"))
		unknown := "nope"

		snap, ok := l.CheckoutSnapshot(&unknown)

		require.True(t, ok)
		require.NotNil(t, snap.Coupon)
		assert.Equal(t, "c1", snap.Coupon.ID)
	})

	t.Run("nil coupon id leaves selection", func(t *testing.T) {
		l := NewLedger()
		l.AddOrUpdate(dish(1, 20), 1)

		snap, ok := l.CheckoutSnapshot(nil)

		require.True(t, ok)
		assert.Nil(t, snap.Coupon)
		assert.Len(t, snap.Lines, 1)
	})
}
