package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/explain"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

type ExplainUseCase struct {
	explainer  explain.Service
	validation *ValidationUseCase
}

func NewExplainUseCase(explainer explain.Service, validation *ValidationUseCase) *ExplainUseCase {
	return &ExplainUseCase{
		explainer:  explainer,
		validation: validation,
	}
}

// PatientOutcome pairs a validation with its patient facing explanation
type PatientOutcome struct {
	Validation  *model.ValidationResult   `json:"validation"`
	Explanation *model.PatientExplanation `json:"explanation"`
}

// ExplainForPatient validates the case and explains the result in plain
// language
func (uc *ExplainUseCase) ExplainForPatient(ctx context.Context, in *model.CaseInput) (*PatientOutcome, error) {
	result, err := uc.validation.ValidateCase(ctx, in)
	if err != nil {
		return nil, err
	}

	explanation, err := uc.explainer.PatientExplanation(ctx, in, result)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to explain validation result")
	}
	return &PatientOutcome{Validation: result, Explanation: explanation}, nil
}

// ReviewOutcome is a validation with an optional doctor review. A review
// failure is reported in ReviewError and leaves Validation intact.
type ReviewOutcome struct {
	Validation  *model.ValidationResult
	Review      *model.DoctorReview
	ReviewError error
}

// ReviewCase validates the case and asks for a doctor review of the result
func (uc *ExplainUseCase) ReviewCase(ctx context.Context, in *model.CaseInput) (*ReviewOutcome, error) {
	result, err := uc.validation.ValidateCase(ctx, in)
	if err != nil {
		return nil, err
	}

	outcome := &ReviewOutcome{Validation: result}
	review, err := uc.explainer.DoctorReview(ctx, in, result)
	if err != nil {
		logging.From(ctx).Warn("doctor review failed", slog.Any("error", err))
		outcome.ReviewError = err
		return outcome, nil
	}
	outcome.Review = review
	return outcome, nil
}
