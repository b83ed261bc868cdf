package checkout

import "github.com/shopspring/decimal"

// Totals is the order total breakdown in cents.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	ShippingCents int `json:"shipping_cents"`
	DiscountCents int `json:"discount_cents"`
	TotalCents    int `json:"total_cents"`
}

// ComposeTotals combines subtotal, shipping and discount into the
// grand total: subtotal + shipping - discount, clamped at zero so an
// oversized discount can never produce a negative charge.
func ComposeTotals(subtotalCents, shippingCents, discountCents int) Totals {
	grand := decimal.NewFromInt(int64(subtotalCents)).
		Add(decimal.NewFromInt(int64(shippingCents))).
		Sub(decimal.NewFromInt(int64(discountCents)))
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	return Totals{
		SubtotalCents: subtotalCents,
		ShippingCents: shippingCents,
		DiscountCents: discountCents,
		TotalCents:    int(grand.IntPart()),
	}
}
