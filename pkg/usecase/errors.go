package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/caseparse"
)

// Sentinel errors for use case layer
var (
	// Input errors
	ErrInvalidCaseInput   = model.ErrInvalidCaseInput
	ErrInvalidGuideline   = model.ErrInvalidGuideline
	ErrInvalidSearchQuery = goerr.New("invalid search query")
	ErrInvalidRules       = goerr.New("invalid rules")
	ErrInvalidTrialQuery  = goerr.New("invalid trial query")
	ErrEmptyCaseText      = caseparse.ErrEmptyText
	ErrCaseTextTooShort   = caseparse.ErrTextTooShort

	// Benchmark errors
	ErrNoScenarioLoader = goerr.New("benchmark scenario loader is not configured")

	// Trials errors
	ErrNoTrialSearcher = goerr.New("trials registry is not configured")
)

// Context keys for error values
const (
	DiagnosisKey      = "diagnosis"
	AsOfDateKey       = "as_of_date"
	PlanItemKey       = "plan_item"
	DatasetVersionKey = "dataset_version"
	TrialQueryKey     = "trial_query"
)
