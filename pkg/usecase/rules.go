package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
	"github.com/oncoguard/oncoguard/pkg/service/search"
)

// Rules are the tunable tables and limits of the validation engine
type Rules struct {
	// SectionScope restricts plan searches to treatment and criteria
	// sections. Empty means every section.
	SectionScope []string

	RedFlags             normalize.PhraseRules
	TagRules             normalize.PhraseRules
	RecommendationMarker string
	BroadQuerySuffix     string

	ItemSearchLimit        int
	BroadSearchLimit       int
	EvidenceLimit          int
	MissingActionLimit     int
	MissingPrefixTokens    int
	MissingDisplayRunes    int
	AppliedGuidelineLimit  int
	TimelineFallbackEvents int
}

// DefaultRules returns the built-in engine configuration
func DefaultRules() *Rules {
	return &Rules{
		SectionScope:           []string{"doc_3", "doc_diag_2", "doc_criteria"},
		RedFlags:               normalize.DefaultRedFlagRules(),
		TagRules:               normalize.DefaultTagRules(),
		RecommendationMarker:   search.DefaultRecommendationMarker,
		BroadQuerySuffix:       "рекомендуется лечение",
		ItemSearchLimit:        6,
		BroadSearchLimit:       15,
		EvidenceLimit:          20,
		MissingActionLimit:     5,
		MissingPrefixTokens:    14,
		MissingDisplayRunes:    220,
		AppliedGuidelineLimit:  10,
		TimelineFallbackEvents: 4,
	}
}

// Validate checks that every limit is positive and the query phrases are set
func (r *Rules) Validate() error {
	limits := map[string]int{
		"item_search_limit":        r.ItemSearchLimit,
		"broad_search_limit":       r.BroadSearchLimit,
		"evidence_limit":           r.EvidenceLimit,
		"missing_action_limit":     r.MissingActionLimit,
		"missing_prefix_tokens":    r.MissingPrefixTokens,
		"missing_display_runes":    r.MissingDisplayRunes,
		"applied_guideline_limit":  r.AppliedGuidelineLimit,
		"timeline_fallback_events": r.TimelineFallbackEvents,
	}
	for name, v := range limits {
		if v <= 0 {
			return goerr.Wrap(ErrInvalidRules, "limit must be positive", goerr.V("limit", name), goerr.V("value", v))
		}
	}

	if r.RecommendationMarker == "" {
		return goerr.Wrap(ErrInvalidRules, "recommendation marker is empty")
	}
	if r.BroadQuerySuffix == "" {
		return goerr.Wrap(ErrInvalidRules, "broad query suffix is empty")
	}

	for _, rule := range append(append(normalize.PhraseRules{}, r.RedFlags...), r.TagRules...) {
		if rule.Label == "" {
			return goerr.Wrap(ErrInvalidRules, "phrase rule label is empty")
		}
		if len(rule.Phrases) == 0 {
			return goerr.Wrap(ErrInvalidRules, "phrase rule has no phrases", goerr.V("label", rule.Label))
		}
	}
	return nil
}
