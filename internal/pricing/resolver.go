package pricing

import (
	"github.com/verdeleaf/storefront-backend/pkg/db/models"
	"github.com/verdeleaf/storefront-backend/pkg/enums"
)

// DefaultOptionLabel names the synthetic option emitted for flat-priced
// products and for weight-tiered records whose tiers are all zero.
const DefaultOptionLabel = "default"

// Option is one purchasable (label, price) choice for a product. The
// resolver guarantees callers never see an empty option list.
type Option struct {
	Label              string
	PriceCents         int
	DiscountPriceCents *int
	IsDefault          bool
}

// EffectiveCents returns the price actually charged for the option:
// the discounted override when present, the listed price otherwise.
func (o Option) EffectiveCents() int {
	if o.DiscountPriceCents != nil {
		return *o.DiscountPriceCents
	}
	return o.PriceCents
}

// Resolve derives the ordered purchasable options for a product.
// Dynamic options keep their stored position order with the default
// chosen by flag, not position. Weight tiers emit only strictly
// positive prices in canonical order. Everything else collapses to a
// single synthetic option carrying the flat price.
func Resolve(product models.Product) []Option {
	mode := product.PricingMode
	if !mode.IsValid() {
		mode = InferMode(product)
	}

	switch mode {
	case enums.PricingModeWeightTiered:
		options := make([]Option, 0, len(enums.WeightTiers()))
		for _, tier := range enums.WeightTiers() {
			cents := product.TierCents(tier)
			if cents <= 0 {
				continue
			}
			options = append(options, Option{
				Label:      tier.String(),
				PriceCents: cents,
				IsDefault:  len(options) == 0,
			})
		}
		if len(options) == 0 {
			// All tiers zero is a data inconsistency; keep the
			// invariant that the list is never empty.
			return []Option{{Label: DefaultOptionLabel, PriceCents: 0, IsDefault: true}}
		}
		return options

	case enums.PricingModeDynamic:
		if len(product.PriceOptions) == 0 {
			return flatOptions(product)
		}
		options := make([]Option, 0, len(product.PriceOptions))
		for _, opt := range product.PriceOptions {
			options = append(options, Option{
				Label:      opt.Label,
				PriceCents: opt.PriceCents,
				IsDefault:  opt.IsDefault,
			})
		}
		return options

	default:
		return flatOptions(product)
	}
}

func flatOptions(product models.Product) []Option {
	opt := Option{
		Label:      DefaultOptionLabel,
		PriceCents: product.BasePriceCents,
		IsDefault:  true,
	}
	if product.DiscountPriceCents != nil && *product.DiscountPriceCents > 0 {
		discounted := *product.DiscountPriceCents
		opt.DiscountPriceCents = &discounted
	}
	return []Option{opt}
}

// DefaultOption picks the option flagged as default, falling back to
// the first entry when no flag is set.
func DefaultOption(options []Option) Option {
	for _, opt := range options {
		if opt.IsDefault {
			return opt
		}
	}
	return options[0]
}

// FindOption locates an option by label. The second return reports
// whether it was found.
func FindOption(options []Option, label string) (Option, bool) {
	for _, opt := range options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// ApplyVariant adjusts a resolved unit price by a color variant's
// delta, clamped at zero so a large negative delta can never produce a
// negative unit price.
func ApplyVariant(priceCents int, variant *models.ProductVariant) int {
	if variant == nil {
		return priceCents
	}
	adjusted := priceCents + variant.PriceDeltaCents
	if adjusted < 0 {
		return 0
	}
	return adjusted
}

// InferMode replicates the legacy precedence for rows without an
// explicit mode: weight-tiered wins over dynamic options, which win
// over flat pricing. Used only when normalizing imported records.
func InferMode(product models.Product) enums.PricingMode {
	if product.HasTierPrices() {
		return enums.PricingModeWeightTiered
	}
	if len(product.PriceOptions) > 0 {
		return enums.PricingModeDynamic
	}
	return enums.PricingModeFlat
}
