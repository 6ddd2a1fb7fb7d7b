package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
)

func TestValidationStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status types.ValidationStatus
		want   bool
	}{
		{"compliant", types.ValidationStatusCompliant, true},
		{"review required", types.ValidationStatusReviewRequired, true},
		{"uppercase", types.ValidationStatus("COMPLIANT"), false},
		{"empty", types.ValidationStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.V(t, tt.status.IsValid()).Equal(tt.want)
		})
	}
}

func TestParseValidationStatus(t *testing.T) {
	got, err := types.ParseValidationStatus("review_required")
	gt.NoError(t, err)
	gt.V(t, got).Equal(types.ValidationStatusReviewRequired)

	_, err = types.ParseValidationStatus("unknown")
	gt.Error(t, err)
}

func TestAllValidationStatuses(t *testing.T) {
	statuses := types.AllValidationStatuses()
	gt.A(t, statuses).Length(2)
	for _, s := range statuses {
		gt.B(t, s.IsValid()).Describef("Status %s should be valid", s).True()
	}
}
