package model

import "github.com/oncoguard/oncoguard/pkg/domain/types"

// ExplanationSource points a patient to a guideline that grounded the result
type ExplanationSource struct {
	GuidelineID   string `json:"guideline_id"`
	GuidelineName string `json:"guideline_name"`
	SourceURL     string `json:"source_url"`
	PDFURL        string `json:"pdf_url"`
}

// PatientExplanation is the plain-language summary shown to the patient
type PatientExplanation struct {
	PlainSummary         string              `json:"plain_summary"`
	WhyThisIsRecommended string              `json:"why_this_is_recommended"`
	QuestionsForDoctor   []string            `json:"questions_for_doctor"`
	Sources              []ExplanationSource `json:"sources"`
	Generated            bool                `json:"generated"` // false when the fallback text was used
}

// DoctorReview is an LLM audit of a validation result
type DoctorReview struct {
	Provider          string        `json:"provider"`
	Model             string        `json:"model"`
	Verdict           types.Verdict `json:"verdict"`
	ClinicalRationale string        `json:"clinical_rationale"`
	CriticalRisks     []string      `json:"critical_risks"`
	AdditionalChecks  []string      `json:"additional_checks"`
	CitedChunkIDs     []string      `json:"cited_chunk_ids"`
}

// SourcesOf lists the applied guideline versions of a result as patient
// facing sources
func SourcesOf(result *ValidationResult) []ExplanationSource {
	sources := make([]ExplanationSource, 0, len(result.AppliedGuidelineVersions))
	for _, g := range result.AppliedGuidelineVersions {
		sources = append(sources, ExplanationSource{
			GuidelineID:   g.ID,
			GuidelineName: g.Name,
			SourceURL:     g.SourceURL,
			PDFURL:        g.PDFURL,
		})
	}
	return sources
}
