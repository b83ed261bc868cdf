package enums

import "fmt"

// ShippingMethod identifies one of the fixed-price delivery options.
type ShippingMethod string

const (
	ShippingPointRelais48h ShippingMethod = "point_relais_48h"
	ShippingDomicile48h    ShippingMethod = "domicile_48h"
	ShippingPointRelais24h ShippingMethod = "point_relais_24h"
)

var validShippingMethods = []ShippingMethod{
	ShippingPointRelais48h,
	ShippingDomicile48h,
	ShippingPointRelais24h,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}

// ShippingMethods returns the closed set of supported methods.
func ShippingMethods() []ShippingMethod {
	out := make([]ShippingMethod, len(validShippingMethods))
	copy(out, validShippingMethods)
	return out
}
