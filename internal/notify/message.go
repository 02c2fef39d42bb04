// Package notify sends order summaries to the operator over a best-effort
// channel. Delivery is attempted exactly once and failures never reach the
// caller.
package notify

import (
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/sweetheart-kart/internal/models"
)

const separator = "------------------------"

// Message is the payload delivered to a channel
type Message struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Format renders an order summary as plain text
func Format(s models.OrderSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "新订单通知 #%s\n", s.OrderID)
	b.WriteString(separator + "\n")
	b.WriteString("订单详情：\n")
	for _, line := range s.Lines {
		fmt.Fprintf(&b, "%s x%d (¥%s)\n", line.Name, line.Quantity, line.Price.String())
	}
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "小计：¥%s\n", s.Subtotal.String())
	if s.AppliedCoupon != nil {
		fmt.Fprintf(&b, "优惠券：%s (-¥%s)\n", s.AppliedCoupon.Code, s.AppliedCoupon.Discount.String())
	}
	fmt.Fprintf(&b, "总计：¥%s", s.FinalTotal.String())

	return b.String()
}
