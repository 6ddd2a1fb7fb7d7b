package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
	"github.com/oncoguard/oncoguard/pkg/service/search"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

// MaxDiagnosisTokens is the number of diagnosis tokens used as name filters
const MaxDiagnosisTokens = 6

// Guideline search and listing limits
const (
	DefaultSearchLimit  = 10
	MaxSearchLimit      = 50
	MinSearchQueryRunes = 2
	DefaultSourcesLimit = 500
)

type GuidelineUseCase struct {
	repo      interfaces.Repository
	rules     *Rules
	providers []search.Provider
}

func NewGuidelineUseCase(repo interfaces.Repository, rules *Rules, providers []search.Provider) *GuidelineUseCase {
	return &GuidelineUseCase{
		repo:      repo,
		rules:     rules,
		providers: providers,
	}
}

// SelectApplicableGuidelines picks one guideline version per code family for
// the diagnosis: the newest version published on or before asOf, or the
// newest version overall when the whole family postdates asOf. Without any
// name match it falls back to the most recent oncology guidelines. The result
// is ordered by publish date descending and holds at most limit entries.
func (uc *GuidelineUseCase) SelectApplicableGuidelines(ctx context.Context, diagnosis, asOf string, limit int) ([]*model.GuidelineVersion, error) {
	tokens := normalize.Tokenize(diagnosis)
	if len(tokens) > MaxDiagnosisTokens {
		tokens = tokens[:MaxDiagnosisTokens]
	}
	patterns := tokens
	if len(patterns) == 0 {
		patterns = []string{strings.ToLower(diagnosis)}
	}

	candidates, err := uc.repo.Guideline().FindByName(ctx, patterns)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find guidelines by name", goerr.V(DiagnosisKey, diagnosis))
	}

	if len(candidates) == 0 {
		recent, err := uc.repo.Guideline().ListRecent(ctx, limit, true)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list recent guidelines")
		}
		logging.From(ctx).Debug("no guideline matched diagnosis, using recent oncology guidelines",
			slog.String("diagnosis", diagnosis),
			slog.Int("count", len(recent)),
		)
		return recent, nil
	}

	asOfTime := model.ParseDate(asOf)
	selected := make([]*model.GuidelineVersion, 0)
	for _, family := range groupByCode(candidates) {
		selected = append(selected, pickVersion(family, asOfTime))
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].PublishedAt().After(selected[j].PublishedAt())
	})
	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected, nil
}

// groupByCode groups versions by family code in first-seen order. Versions
// without a code form their own family.
func groupByCode(candidates []*model.GuidelineVersion) [][]*model.GuidelineVersion {
	var families [][]*model.GuidelineVersion
	index := map[int64]int{}
	nilFamily := -1

	for _, g := range candidates {
		switch {
		case g.Code == nil && nilFamily < 0:
			nilFamily = len(families)
			families = append(families, []*model.GuidelineVersion{g})
		case g.Code == nil:
			families[nilFamily] = append(families[nilFamily], g)
		default:
			if i, ok := index[*g.Code]; ok {
				families[i] = append(families[i], g)
				continue
			}
			index[*g.Code] = len(families)
			families = append(families, []*model.GuidelineVersion{g})
		}
	}
	return families
}

func pickVersion(family []*model.GuidelineVersion, asOf time.Time) *model.GuidelineVersion {
	sorted := append([]*model.GuidelineVersion(nil), family...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt().After(sorted[j].PublishedAt())
	})
	for _, g := range sorted {
		if !g.PublishedAt().After(asOf) {
			return g
		}
	}
	return sorted[0]
}

// ImportGuideline normalizes a guideline document into sections and chunks
// and replaces the stored copy of the guideline
func (uc *GuidelineUseCase) ImportGuideline(ctx context.Context, doc *model.GuidelineDocument) (*model.StoreCounts, error) {
	if doc == nil {
		return nil, goerr.Wrap(model.ErrInvalidGuideline, "guideline document is nil")
	}
	if err := doc.Guideline.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid guideline document")
	}

	sections := normalize.BuildSections(doc)
	chunks := normalize.BuildChunks(doc.Guideline.ID, sections, uc.rules.TagRules)

	if err := uc.repo.Guideline().Save(ctx, &doc.Guideline, sections, chunks); err != nil {
		return nil, goerr.Wrap(err, "failed to save guideline", goerr.V(model.GuidelineIDKey, doc.Guideline.ID))
	}

	logging.From(ctx).Info("guideline imported",
		slog.String("guideline_id", doc.Guideline.ID),
		slog.Int("sections", len(sections)),
		slog.Int("chunks", len(chunks)),
	)
	return &model.StoreCounts{Guidelines: 1, Chunks: len(chunks)}, nil
}

// ImportGuidelines imports documents in order and stops at the first failure
func (uc *GuidelineUseCase) ImportGuidelines(ctx context.Context, docs []*model.GuidelineDocument) (*model.StoreCounts, error) {
	total := &model.StoreCounts{}
	for i, doc := range docs {
		counts, err := uc.ImportGuideline(ctx, doc)
		if err != nil {
			return total, goerr.Wrap(err, "failed to import guideline document", goerr.V("index", i))
		}
		total.Guidelines += counts.Guidelines
		total.Chunks += counts.Chunks
	}
	return total, nil
}

// SearchRequest is a free-text evidence search
type SearchRequest struct {
	Query        string   `json:"query"`
	Limit        int      `json:"limit"`
	GuidelineIDs []string `json:"guideline_ids"`
}

// SearchGuidelines runs the merged search over every section
func (uc *GuidelineUseCase) SearchGuidelines(ctx context.Context, req SearchRequest) ([]*model.SearchHit, error) {
	query := strings.TrimSpace(req.Query)
	if utf8.RuneCountInString(query) < MinSearchQueryRunes {
		return nil, goerr.Wrap(ErrInvalidSearchQuery, "query is too short", goerr.V("query", req.Query))
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultSearchLimit
	}
	if limit < 1 || limit > MaxSearchLimit {
		return nil, goerr.Wrap(ErrInvalidSearchQuery, "limit is out of range", goerr.V("limit", req.Limit))
	}

	hits, err := search.Merge(ctx, uc.providers, query, search.Scope{
		GuidelineIDs: req.GuidelineIDs,
		Limit:        limit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search guidelines")
	}
	return hits, nil
}

// ListGuidelineSources lists stored guideline versions with section counts
func (uc *GuidelineUseCase) ListGuidelineSources(ctx context.Context, limit int) ([]*model.GuidelineSource, error) {
	if limit <= 0 {
		limit = DefaultSourcesLimit
	}
	sources, err := uc.repo.Guideline().ListSources(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list guideline sources")
	}
	return sources, nil
}
