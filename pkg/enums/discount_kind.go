package enums

import "fmt"

// DiscountKind distinguishes percentage and fixed-amount promo codes.
// Only percentage discounts are computed by the order flow today; fixed
// is declared for forward compatibility with stored promo records.
type DiscountKind string

const (
	DiscountKindPercentage DiscountKind = "percentage"
	DiscountKindFixed      DiscountKind = "fixed"
)

var validDiscountKinds = []DiscountKind{
	DiscountKindPercentage,
	DiscountKindFixed,
}

// String implements fmt.Stringer.
func (d DiscountKind) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DiscountKind.
func (d DiscountKind) IsValid() bool {
	for _, candidate := range validDiscountKinds {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountKind converts raw input into a DiscountKind.
func ParseDiscountKind(value string) (DiscountKind, error) {
	for _, candidate := range validDiscountKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount kind %q", value)
}
