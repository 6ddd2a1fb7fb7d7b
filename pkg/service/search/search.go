// Package search retrieves evidence chunks through independent strategies
// and merges their results.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
	"golang.org/x/sync/errgroup"
)

// Default result limits
const (
	DefaultIndexedTextLimit = 12
	MaxIndexedTextLimit     = 50
	DefaultHeuristicLimit   = 8
	DefaultMergeLimit       = 15
)

// Heuristic scores
const (
	MarkerScore  = 0.5
	DefaultScore = 1.0
)

// Scope restricts a search. Empty id lists mean no restriction and a
// non-positive Limit means the strategy's default.
type Scope struct {
	GuidelineIDs []string
	SectionIDs   []string
	Limit        int
}

// Provider is one retrieval strategy. Implementations must be read-only and
// safe for concurrent use.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, scope Scope) ([]*model.SearchHit, error)
}

// IndexedText ranks chunks with the store's full-text index
type IndexedText struct {
	chunks interfaces.ChunkRepository
}

var _ Provider = &IndexedText{}

func NewIndexedText(chunks interfaces.ChunkRepository) *IndexedText {
	return &IndexedText{chunks: chunks}
}

func (p *IndexedText) Name() string {
	return "indexed_text"
}

func (p *IndexedText) Search(ctx context.Context, query string, scope Scope) ([]*model.SearchHit, error) {
	terms := normalize.FullTextQuery(query)
	if len(terms) == 0 {
		return []*model.SearchHit{}, nil
	}

	limit := scope.Limit
	if limit <= 0 {
		limit = DefaultIndexedTextLimit
	}
	limit = min(max(limit, 1), MaxIndexedTextLimit)

	hits, err := p.chunks.FullTextSearch(ctx, model.FullTextQuery{
		Terms:        terms,
		GuidelineIDs: scope.GuidelineIDs,
		SectionIDs:   scope.SectionIDs,
		Limit:        limit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "indexed text search failed", goerr.V("terms", terms))
	}
	return hits, nil
}

// Heuristic matches the whole query as a substring and prefers chunks that
// contain an explicit recommendation marker
type Heuristic struct {
	chunks interfaces.ChunkRepository
	marker string
}

var _ Provider = &Heuristic{}

// DefaultRecommendationMarker is the phrase that boosts heuristic hits
const DefaultRecommendationMarker = "рекомендуется"

type HeuristicOption func(*Heuristic)

// WithMarker replaces the recommendation marker phrase
func WithMarker(marker string) HeuristicOption {
	return func(h *Heuristic) {
		h.marker = strings.ToLower(marker)
	}
}

func NewHeuristic(chunks interfaces.ChunkRepository, opts ...HeuristicOption) *Heuristic {
	h := &Heuristic{
		chunks: chunks,
		marker: DefaultRecommendationMarker,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (p *Heuristic) Name() string {
	return "heuristic"
}

func (p *Heuristic) Search(ctx context.Context, query string, scope Scope) ([]*model.SearchHit, error) {
	pattern := strings.ToLower(strings.TrimSpace(query))
	if pattern == "" {
		return []*model.SearchHit{}, nil
	}

	limit := scope.Limit
	if limit <= 0 {
		limit = DefaultHeuristicLimit
	}

	hits, err := p.chunks.SubstringSearch(ctx, model.SubstringQuery{
		Pattern:      pattern,
		Marker:       p.marker,
		MarkerScore:  MarkerScore,
		DefaultScore: DefaultScore,
		GuidelineIDs: scope.GuidelineIDs,
		SectionIDs:   scope.SectionIDs,
		Limit:        limit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "heuristic search failed")
	}
	return hits, nil
}

// Merge runs all providers concurrently and combines their hits: one hit per
// chunk id with the lowest score seen, ascending by score (chunk id breaks
// ties), truncated to scope.Limit or DefaultMergeLimit. Any provider error
// fails the merge.
func Merge(ctx context.Context, providers []Provider, query string, scope Scope) ([]*model.SearchHit, error) {
	results := make([][]*model.SearchHit, len(providers))

	eg, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		eg.Go(func() error {
			hits, err := p.Search(ctx, query, scope)
			if err != nil {
				return goerr.Wrap(err, "provider search failed", goerr.V("provider", p.Name()))
			}
			results[i] = hits
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []*model.SearchHit
	for _, hits := range results {
		all = append(all, hits...)
	}

	limit := scope.Limit
	if limit <= 0 {
		limit = DefaultMergeLimit
	}
	merged := DedupeBest(all)
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// DedupeBest keeps the lowest-scored hit per chunk id and sorts the result
// ascending by score, breaking ties by chunk id
func DedupeBest(hits []*model.SearchHit) []*model.SearchHit {
	best := make(map[string]*model.SearchHit, len(hits))
	for _, h := range hits {
		if cur, ok := best[h.ChunkID]; !ok || h.Score < cur.Score {
			best[h.ChunkID] = h
		}
	}

	result := make([]*model.SearchHit, 0, len(best))
	for _, h := range best {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score < result[j].Score
		}
		return result[i].ChunkID < result[j].ChunkID
	})
	return result
}
