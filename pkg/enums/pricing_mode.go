package enums

import "fmt"

// PricingMode tags how a product's purchasable options are derived.
type PricingMode string

const (
	PricingModeFlat         PricingMode = "flat"
	PricingModeWeightTiered PricingMode = "weight_tiered"
	PricingModeDynamic      PricingMode = "dynamic"
)

var validPricingModes = []PricingMode{
	PricingModeFlat,
	PricingModeWeightTiered,
	PricingModeDynamic,
}

// String implements fmt.Stringer.
func (p PricingMode) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingMode.
func (p PricingMode) IsValid() bool {
	for _, candidate := range validPricingModes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePricingMode converts raw input into a PricingMode.
func ParsePricingMode(value string) (PricingMode, error) {
	for _, candidate := range validPricingModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing mode %q", value)
}
