package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

func TestValidationResult_PredictsMismatch(t *testing.T) {
	gt.B(t, (&model.ValidationResult{}).PredictsMismatch()).False()
	gt.B(t, (&model.ValidationResult{Mismatches: []string{"x"}}).PredictsMismatch()).True()
	gt.B(t, (&model.ValidationResult{Conflicts: []string{"x"}}).PredictsMismatch()).True()
}

func TestValidationResult_HasEvidenceChunk(t *testing.T) {
	r := &model.ValidationResult{Evidence: []*model.SearchHit{{ChunkID: "g:s:1"}}}
	gt.B(t, r.HasEvidenceChunk("g:s:1")).True()
	gt.B(t, r.HasEvidenceChunk("g:s:2")).False()
}

func TestNewValidationRunID(t *testing.T) {
	a := model.NewValidationRunID()
	b := model.NewValidationRunID()
	gt.V(t, a).NotEqual(b)
	gt.N(t, len(a)).Equal(36)
}
