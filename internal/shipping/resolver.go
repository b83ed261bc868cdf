package shipping

import (
	"context"

	"github.com/verdeleaf/storefront-backend/pkg/config"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
	"github.com/verdeleaf/storefront-backend/pkg/logger"
)

// Resolver maps a shipping method tag plus subtotal to a shipping
// charge. Prices and the free-shipping threshold come from config.
type Resolver struct {
	prices         map[enums.ShippingMethod]int
	freeThreshold  int
	cheapestMethod enums.ShippingMethod
	logg           *logger.Logger
}

// NewResolver builds a resolver from the configured price table.
func NewResolver(cfg config.ShippingConfig, logg *logger.Logger) *Resolver {
	prices := map[enums.ShippingMethod]int{
		enums.ShippingPointRelais48h: cfg.RelayPoint48hCents,
		enums.ShippingDomicile48h:    cfg.Home48hCents,
		enums.ShippingPointRelais24h: cfg.RelayPoint24hCents,
	}

	cheapest := enums.ShippingPointRelais48h
	for _, method := range enums.ShippingMethods() {
		if prices[method] < prices[cheapest] {
			cheapest = method
		}
	}

	return &Resolver{
		prices:         prices,
		freeThreshold:  cfg.FreeThresholdCents,
		cheapestMethod: cheapest,
		logg:           logg,
	}
}

// Cost returns the shipping charge in cents. Subtotals at or above the
// free threshold ship free on every method. The HTTP layer validates
// method tags before they get here; an unrecognized tag from an
// internal caller falls back to the cheapest method's price and is
// logged rather than failing the checkout.
func (r *Resolver) Cost(ctx context.Context, subtotalCents int, method enums.ShippingMethod) int {
	if subtotalCents >= r.freeThreshold {
		return 0
	}
	if price, ok := r.prices[method]; ok {
		return price
	}
	if r.logg != nil {
		r.logg.Warn(r.logg.WithField(ctx, "shipping_method", method.String()),
			"unknown shipping method, falling back to cheapest")
	}
	return r.prices[r.cheapestMethod]
}

// FreeThresholdCents exposes the configured free-shipping floor.
func (r *Resolver) FreeThresholdCents() int {
	return r.freeThreshold
}

// Methods returns the supported methods with their prices, in the
// enum's canonical order, for storefront display.
func (r *Resolver) Methods() []MethodPrice {
	out := make([]MethodPrice, 0, len(r.prices))
	for _, method := range enums.ShippingMethods() {
		out = append(out, MethodPrice{Method: method, PriceCents: r.prices[method]})
	}
	return out
}

// MethodPrice pairs a shipping method with its fixed price.
type MethodPrice struct {
	Method     enums.ShippingMethod `json:"method"`
	PriceCents int                  `json:"price_cents"`
}
