package checkout

import "testing"

func TestComposeTotals(t *testing.T) {
	cases := []struct {
		name     string
		subtotal int
		shipping int
		discount int
		want     int
	}{
		{"plain sum", 3000, 455, 0, 3455},
		{"discount applied", 9500, 690, 950, 9240},
		{"free shipping", 8000, 0, 0, 8000},
		{"discount exceeds total clamps at zero", 500, 0, 1000, 0},
		{"discount equals total", 1000, 0, 1000, 0},
		{"empty cart", 0, 455, 0, 455},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComposeTotals(tc.subtotal, tc.shipping, tc.discount)
			if got.TotalCents != tc.want {
				t.Fatalf("expected total %d, got %d", tc.want, got.TotalCents)
			}
			if got.SubtotalCents != tc.subtotal || got.ShippingCents != tc.shipping || got.DiscountCents != tc.discount {
				t.Fatalf("breakdown fields must pass through unchanged: %+v", got)
			}
		})
	}
}
