package enums

import "fmt"

// MediaStatus tracks an uploaded object's lifecycle. Rows start pending
// when a signed upload URL is issued and become ready once confirmed.
type MediaStatus string

const (
	MediaStatusPending MediaStatus = "pending"
	MediaStatusReady   MediaStatus = "ready"
)

var validMediaStatuses = []MediaStatus{
	MediaStatusPending,
	MediaStatusReady,
}

// String implements fmt.Stringer.
func (s MediaStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MediaStatus.
func (s MediaStatus) IsValid() bool {
	for _, candidate := range validMediaStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMediaStatus converts raw input into a MediaStatus.
func ParseMediaStatus(value string) (MediaStatus, error) {
	for _, candidate := range validMediaStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media status %q", value)
}
