package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
)

// AppliedGuidelineVersion records which guideline version grounded a result
type AppliedGuidelineVersion struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PublishDate *string `json:"publish_date"`
	Status      int     `json:"status"`
	SourceURL   string  `json:"source_url"`
	PDFURL      string  `json:"pdf_url"`
}

// ValidationResult is the outcome of reconciling a treatment plan against
// guideline evidence
type ValidationResult struct {
	Status                   types.ValidationStatus    `json:"status"`
	Matches                  []string                  `json:"matches"`
	Mismatches               []string                  `json:"mismatches"`
	MissingActions           []string                  `json:"missing_actions"`
	Conflicts                []string                  `json:"conflicts"`
	Evidence                 []*SearchHit              `json:"evidence"`
	AppliedGuidelineVersions []AppliedGuidelineVersion `json:"applied_guideline_versions"`
	SourceTraceabilityRate   float64                   `json:"source_traceability_rate"`
	LatencyMS                int64                     `json:"latency_ms"`
	GeneratedAt              time.Time                 `json:"generated_at"`
}

// PredictsMismatch reports whether the result flags anything for review
func (r *ValidationResult) PredictsMismatch() bool {
	return len(r.Mismatches) > 0 || len(r.Conflicts) > 0
}

// HasEvidenceChunk reports whether chunkID is among the result's evidence
func (r *ValidationResult) HasEvidenceChunk(chunkID string) bool {
	for _, hit := range r.Evidence {
		if hit.ChunkID == chunkID {
			return true
		}
	}
	return false
}

// ValidationRunID is a UUID-based identifier of a persisted validation
type ValidationRunID string

// NewValidationRunID generates a new UUID v4 ValidationRunID
func NewValidationRunID() ValidationRunID {
	return ValidationRunID(uuid.New().String())
}

// ValidationRun is the append-only audit record of one validation
type ValidationRun struct {
	RunID     ValidationRunID   `json:"run_id"`
	CaseID    *string           `json:"case_id"`
	AsOfDate  string            `json:"as_of_date"`
	Result    *ValidationResult `json:"result"`
	LatencyMS int64             `json:"latency_ms"`
	CreatedAt time.Time         `json:"created_at"`
}
