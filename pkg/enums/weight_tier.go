package enums

import "fmt"

// WeightTier is one of the fixed quantity buckets used for products sold
// by weight. The declaration order is the canonical display order and is
// significant for cheapest-option lookups.
type WeightTier string

const (
	WeightTier3g  WeightTier = "3g"
	WeightTier5g  WeightTier = "5g"
	WeightTier10g WeightTier = "10g"
	WeightTier30g WeightTier = "30g"
	WeightTier50g WeightTier = "50g"
)

var canonicalWeightTiers = []WeightTier{
	WeightTier3g,
	WeightTier5g,
	WeightTier10g,
	WeightTier30g,
	WeightTier50g,
}

// String implements fmt.Stringer.
func (w WeightTier) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WeightTier.
func (w WeightTier) IsValid() bool {
	for _, candidate := range canonicalWeightTiers {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWeightTier converts raw input into a WeightTier.
func ParseWeightTier(value string) (WeightTier, error) {
	for _, candidate := range canonicalWeightTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid weight tier %q", value)
}

// WeightTiers returns the tiers in canonical order.
func WeightTiers() []WeightTier {
	out := make([]WeightTier, len(canonicalWeightTiers))
	copy(out, canonicalWeightTiers)
	return out
}
