package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
	"github.com/oncoguard/oncoguard/pkg/service/search"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

const conflictMessage = "План содержит потенциально опасный пункт: %s"

type ValidationUseCase struct {
	repo      interfaces.Repository
	rules     *Rules
	providers []search.Provider
	guideline *GuidelineUseCase
}

func NewValidationUseCase(repo interfaces.Repository, rules *Rules, providers []search.Provider, guideline *GuidelineUseCase) *ValidationUseCase {
	return &ValidationUseCase{
		repo:      repo,
		rules:     rules,
		providers: providers,
		guideline: guideline,
	}
}

// ValidateCase reconciles the case's treatment plan against the applicable
// guideline versions and records the result as a validation run
func (uc *ValidationUseCase) ValidateCase(ctx context.Context, in *model.CaseInput) (*model.ValidationResult, error) {
	if in == nil {
		return nil, goerr.Wrap(ErrInvalidCaseInput, "case input is nil")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	rules := uc.rules

	applied, err := uc.guideline.SelectApplicableGuidelines(ctx, in.Diagnosis, in.AsOfDate, rules.AppliedGuidelineLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to select guidelines", goerr.V(DiagnosisKey, in.Diagnosis), goerr.V(AsOfDateKey, in.AsOfDate))
	}
	guidelineIDs := make([]string, 0, len(applied))
	appliedVersions := make([]model.AppliedGuidelineVersion, 0, len(applied))
	for _, g := range applied {
		guidelineIDs = append(guidelineIDs, g.ID)
		appliedVersions = append(appliedVersions, g.Applied())
	}

	planItems := normalizePlan(in, rules.TimelineFallbackEvents)

	var (
		matches, mismatches, conflicts []string
		collected                      []*model.SearchHit
	)
	planTokens := map[string]struct{}{}

	for _, item := range planItems {
		itemTokens := normalize.Tokenize(item)
		for _, t := range itemTokens {
			planTokens[t] = struct{}{}
		}

		hits, err := search.Merge(ctx, uc.providers, in.Diagnosis+" "+item, search.Scope{
			GuidelineIDs: guidelineIDs,
			SectionIDs:   rules.SectionScope,
			Limit:        rules.ItemSearchLimit,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search evidence for plan item", goerr.V(PlanItemKey, item))
		}

		relevant := relevantHits(hits, itemTokens)
		collected = append(collected, relevant...)

		if len(relevant) > 0 {
			matches = append(matches, item)
		} else {
			mismatches = append(mismatches, item)
		}
		if rules.RedFlags.Match(item) {
			conflicts = append(conflicts, fmt.Sprintf(conflictMessage, item))
		}

		logging.From(ctx).Debug("plan item classified",
			slog.String("item", item),
			slog.Int("hits", len(hits)),
			slog.Int("relevant", len(relevant)),
		)
	}

	broadHits, err := search.Merge(ctx, uc.providers, in.Diagnosis+" "+rules.BroadQuerySuffix, search.Scope{
		GuidelineIDs: guidelineIDs,
		SectionIDs:   rules.SectionScope,
		Limit:        rules.BroadSearchLimit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search recommended actions")
	}
	collected = append(collected, broadHits...)

	missing := uc.missingActions(broadHits, planTokens)

	evidence := search.DedupeBest(collected)
	if len(evidence) > rules.EvidenceLimit {
		evidence = evidence[:rules.EvidenceLimit]
	}

	status := types.ValidationStatusCompliant
	if len(mismatches) > 0 || len(conflicts) > 0 {
		status = types.ValidationStatusReviewRequired
	}

	latency := time.Since(started).Milliseconds()
	result := &model.ValidationResult{
		Status:                   status,
		Matches:                  unique(matches),
		Mismatches:               unique(mismatches),
		MissingActions:           unique(missing),
		Conflicts:                unique(conflicts),
		Evidence:                 evidence,
		AppliedGuidelineVersions: appliedVersions,
		SourceTraceabilityRate:   traceabilityRate(len(evidence), len(planItems)+len(missing)+1),
		LatencyMS:                latency,
		GeneratedAt:              time.Now().UTC(),
	}

	run := &model.ValidationRun{
		RunID:     model.NewValidationRunID(),
		AsOfDate:  in.AsOfDate,
		Result:    result,
		LatencyMS: latency,
		CreatedAt: result.GeneratedAt,
	}
	if in.CaseID != "" {
		caseID := in.CaseID
		run.CaseID = &caseID
	}
	if err := uc.repo.ValidationRun().Put(ctx, run); err != nil {
		return nil, goerr.Wrap(err, "failed to save validation run", goerr.V("run_id", run.RunID))
	}

	logging.From(ctx).Info("case validated",
		slog.String("run_id", string(run.RunID)),
		slog.String("status", status.String()),
		slog.Int("plan_items", len(planItems)),
		slog.Int("mismatches", len(result.Mismatches)),
		slog.Int("conflicts", len(result.Conflicts)),
		slog.Int("evidence", len(evidence)),
		slog.Int64("latency_ms", latency),
	)
	return result, nil
}

// normalizePlan returns the trimmed non-blank plan items, or pseudo items
// built from the most recent timeline events when the plan is empty
func normalizePlan(in *model.CaseInput, fallbackEvents int) []string {
	items := []string{}
	for _, item := range in.CurrentPlan {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(in.CurrentPlan) > 0 {
		return items
	}

	events := in.Timeline
	if len(events) > fallbackEvents {
		events = events[len(events)-fallbackEvents:]
	}
	for _, ev := range events {
		items = append(items, ev.EventType+": "+payloadJSON(ev.Payload))
	}
	return items
}

func payloadJSON(payload map[string]any) string {
	if payload == nil {
		return "{}"
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// relevantHits keeps hits sharing at least one token with the plan item
func relevantHits(hits []*model.SearchHit, itemTokens []string) []*model.SearchHit {
	relevant := []*model.SearchHit{}
	if len(itemTokens) == 0 {
		return relevant
	}
	for _, hit := range hits {
		if normalize.Overlaps(normalize.TokenSet(hit.ChunkText), itemTokens) {
			relevant = append(relevant, hit)
		}
	}
	return relevant
}

// missingActions returns recommendation texts whose leading tokens share
// nothing with the plan
func (uc *ValidationUseCase) missingActions(hits []*model.SearchHit, planTokens map[string]struct{}) []string {
	missing := []string{}
	for _, hit := range hits {
		if len(missing) == uc.rules.MissingActionLimit {
			break
		}
		tokens := normalize.Tokenize(hit.ChunkText)
		if len(tokens) > uc.rules.MissingPrefixTokens {
			tokens = tokens[:uc.rules.MissingPrefixTokens]
		}
		if normalize.Overlaps(planTokens, tokens) {
			continue
		}
		missing = append(missing, normalize.Truncate(hit.ChunkText, uc.rules.MissingDisplayRunes))
	}
	return missing
}

func traceabilityRate(evidence, signals int) float64 {
	if signals <= 0 {
		return 0
	}
	ratio := float64(evidence) / float64(signals)
	return round4(math.Max(0, math.Min(1, ratio)))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// unique removes duplicates keeping first occurrences
func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
