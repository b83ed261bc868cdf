package shipping

import (
	"context"
	"testing"

	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

func testConfig() config.ShippingConfig {
	return config.ShippingConfig{
		RelayPoint48hCents: 455,
		Home48hCents:       690,
		RelayPoint24hCents: 990,
		FreeThresholdCents: 8000,
	}
}

func TestCostFixedPricePerMethod(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	ctx := context.Background()

	cases := []struct {
		method enums.ShippingMethod
		want   int
	}{
		{enums.ShippingPointRelais48h, 455},
		{enums.ShippingDomicile48h, 690},
		{enums.ShippingPointRelais24h, 990},
	}
	for _, tc := range cases {
		if got := r.Cost(ctx, 3000, tc.method); got != tc.want {
			t.Fatalf("Cost(3000, %s) = %d, want %d", tc.method, got, tc.want)
		}
	}
}

func TestCostFreeAboveThresholdForEveryMethod(t *testing.T) {
	r := NewResolver(testConfig(), nil)
	ctx := context.Background()

	for _, method := range enums.ShippingMethods() {
		if got := r.Cost(ctx, 8000, method); got != 0 {
			t.Fatalf("Cost(8000, %s) = %d, want 0", method, got)
		}
		if got := r.Cost(ctx, 12000, method); got != 0 {
			t.Fatalf("Cost(12000, %s) = %d, want 0", method, got)
		}
	}

	// Just below the threshold still charges.
	if got := r.Cost(ctx, 7999, enums.ShippingPointRelais48h); got != 455 {
		t.Fatalf("Cost(7999) = %d, want 455", got)
	}
}

func TestCostUnknownMethodFallsBackToCheapest(t *testing.T) {
	r := NewResolver(testConfig(), nil)

	if got := r.Cost(context.Background(), 3000, enums.ShippingMethod("carrier_pigeon")); got != 455 {
		t.Fatalf("Cost(unknown) = %d, want cheapest 455", got)
	}
}

func TestMethodsCanonicalOrder(t *testing.T) {
	r := NewResolver(testConfig(), nil)

	methods := r.Methods()
	if len(methods) != 3 {
		t.Fatalf("expected 3 methods, got %d", len(methods))
	}
	if methods[0].Method != enums.ShippingPointRelais48h || methods[0].PriceCents != 455 {
		t.Fatalf("unexpected first method %+v", methods[0])
	}
	if methods[2].Method != enums.ShippingPointRelais24h || methods[2].PriceCents != 990 {
		t.Fatalf("unexpected last method %+v", methods[2])
	}
}
