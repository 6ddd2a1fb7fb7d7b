package explain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

// MaxReviewItems caps critical risks and additional checks in a review
const MaxReviewItems = 8

const reviewSystemPrompt = "Ты эксперт по клиническому аудиту. Возвращай только валидный JSON без пояснений вне JSON."

var reviewSchema = &gollem.Parameter{
	Title:       "DoctorReview",
	Description: "Clinical audit of a rule based treatment plan check",
	Type:        gollem.TypeObject,
	Properties: map[string]*gollem.Parameter{
		"verdict": {
			Type:        gollem.TypeString,
			Description: "confirmed when the rule based result is sound, needs_attention otherwise.",
			Enum:        []string{types.VerdictConfirmed.String(), types.VerdictNeedsAttention.String()},
			Required:    true,
		},
		"clinical_rationale": {
			Type:        gollem.TypeString,
			Description: "Short technical rationale. Plain text, no markdown.",
			Required:    true,
		},
		"critical_risks": {
			Type:        gollem.TypeArray,
			Description: "Risks caused by deviations from the guidelines.",
			Items:       &gollem.Parameter{Type: gollem.TypeString},
			Required:    true,
		},
		"additional_checks": {
			Type:        gollem.TypeArray,
			Description: "Checks the doctor should perform before acting.",
			Items:       &gollem.Parameter{Type: gollem.TypeString},
			Required:    true,
		},
		"cited_chunk_ids": {
			Type:        gollem.TypeArray,
			Description: "chunk_id values from the evidence that support the rationale.",
			Items:       &gollem.Parameter{Type: gollem.TypeString},
		},
	},
}

type reviewResponse struct {
	Verdict           string   `json:"verdict"`
	ClinicalRationale string   `json:"clinical_rationale"`
	CriticalRisks     []string `json:"critical_risks"`
	AdditionalChecks  []string `json:"additional_checks"`
	CitedChunkIDs     []string `json:"cited_chunk_ids"`
}

// DoctorReview asks the LLM to audit a validation result. It requires a
// configured client.
func (l *LLM) DoctorReview(ctx context.Context, in *model.CaseInput, result *model.ValidationResult) (*model.DoctorReview, error) {
	if l.client == nil {
		return nil, goerr.Wrap(ErrLLMNotConfigured, "doctor review requires an llm")
	}

	prompt, err := buildPrompt(reviewPrompt, in, result)
	if err != nil {
		return nil, err
	}

	var resp reviewResponse
	if err := l.generateJSON(ctx, reviewSystemPrompt, reviewSchema, prompt, &resp); err != nil {
		return nil, goerr.Wrap(err, "doctor review failed", goerr.V("provider", l.provider))
	}

	review, err := l.normalizeReview(&resp, result)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("doctor review generated",
		slog.String("verdict", review.Verdict.String()),
		slog.Int("critical_risks", len(review.CriticalRisks)),
		slog.Int("cited_chunks", len(review.CitedChunkIDs)),
	)
	return review, nil
}

func (l *LLM) normalizeReview(resp *reviewResponse, result *model.ValidationResult) (*model.DoctorReview, error) {
	if strings.TrimSpace(resp.ClinicalRationale) == "" {
		return nil, goerr.Wrap(ErrInvalidResponse, "llm returned no clinical_rationale")
	}

	cited := []string{}
	seen := map[string]struct{}{}
	for _, id := range resp.CitedChunkIDs {
		if _, dup := seen[id]; dup || !result.HasEvidenceChunk(id) {
			continue
		}
		seen[id] = struct{}{}
		cited = append(cited, id)
	}

	return &model.DoctorReview{
		Provider:          l.provider,
		Model:             l.model,
		Verdict:           types.Verdict(resp.Verdict).Normalize(),
		ClinicalRationale: resp.ClinicalRationale,
		CriticalRisks:     capItems(resp.CriticalRisks),
		AdditionalChecks:  capItems(resp.AdditionalChecks),
		CitedChunkIDs:     cited,
	}, nil
}

func capItems(items []string) []string {
	if len(items) > MaxReviewItems {
		items = items[:MaxReviewItems]
	}
	return append([]string{}, items...)
}
