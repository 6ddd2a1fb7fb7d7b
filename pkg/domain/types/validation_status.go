package types

import "fmt"

// ValidationStatus is the overall outcome of a plan validation
type ValidationStatus string

const (
	ValidationStatusCompliant      ValidationStatus = "compliant"
	ValidationStatusReviewRequired ValidationStatus = "review_required"
)

// AllValidationStatuses returns all valid validation statuses
func AllValidationStatuses() []ValidationStatus {
	return []ValidationStatus{
		ValidationStatusCompliant,
		ValidationStatusReviewRequired,
	}
}

// IsValid checks if the validation status is valid
func (s ValidationStatus) IsValid() bool {
	switch s {
	case ValidationStatusCompliant,
		ValidationStatusReviewRequired:
		return true
	default:
		return false
	}
}

// String returns the string representation of the validation status
func (s ValidationStatus) String() string {
	return string(s)
}

// ParseValidationStatus parses a string into a ValidationStatus
func ParseValidationStatus(s string) (ValidationStatus, error) {
	status := ValidationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid validation status: %s", s)
	}
	return status, nil
}
