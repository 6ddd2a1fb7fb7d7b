package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

// BM25 parameters, same as the SQLite FTS5 defaults
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

type chunkRepository struct {
	corpus *corpus
}

// indexTerms splits text into lowercase letter and digit runs
func indexTerms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// prefixFrequency counts document terms starting with term
func prefixFrequency(terms []string, term string) int {
	n := 0
	for _, t := range terms {
		if strings.HasPrefix(t, term) {
			n++
		}
	}
	return n
}

// FullTextSearch ranks chunks with BM25 over prefix term matches. Scores are
// negated so that lower is better.
func (r *chunkRepository) FullTextSearch(ctx context.Context, query model.FullTextQuery) ([]*model.SearchHit, error) {
	if len(query.Terms) == 0 {
		return nil, nil
	}

	c := r.corpus
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := len(c.chunks)
	if total == 0 {
		return nil, nil
	}
	avgLen := float64(c.totalTerms) / float64(total)
	if avgLen == 0 {
		avgLen = 1
	}

	type termStat struct {
		term string
		idf  float64
	}
	stats := make([]termStat, 0, len(query.Terms))
	for _, term := range query.Terms {
		term = strings.ToLower(term)
		docs := 0
		for _, ic := range c.chunks {
			if prefixFrequency(ic.terms, term) > 0 {
				docs++
			}
		}
		idf := math.Log((float64(total-docs) + 0.5) / (float64(docs) + 0.5))
		if idf <= 0 {
			idf = 1e-6
		}
		stats = append(stats, termStat{term: term, idf: idf})
	}

	type scored struct {
		ic    *indexedChunk
		score float64
	}
	var matched []scored
	for _, ic := range c.chunks {
		if !inScope(ic.chunk, query.GuidelineIDs, query.SectionIDs) {
			continue
		}
		docLen := float64(len(ic.terms))
		score := 0.0
		hit := false
		for _, st := range stats {
			tf := float64(prefixFrequency(ic.terms, st.term))
			if tf == 0 {
				continue
			}
			hit = true
			score += st.idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		}
		if hit {
			matched = append(matched, scored{ic: ic, score: -score})
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score < matched[j].score
		}
		return matched[i].ic.chunk.ChunkID < matched[j].ic.chunk.ChunkID
	})
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	hits := make([]*model.SearchHit, 0, len(matched))
	for _, m := range matched {
		hits = append(hits, c.toHit(m.ic, m.score))
	}
	return hits, nil
}

// SubstringSearch matches the lowercased pattern against chunk text
func (r *chunkRepository) SubstringSearch(ctx context.Context, query model.SubstringQuery) ([]*model.SearchHit, error) {
	pattern := strings.ToLower(query.Pattern)
	if pattern == "" {
		return nil, nil
	}
	marker := strings.ToLower(query.Marker)

	c := r.corpus
	c.mu.RLock()
	defer c.mu.RUnlock()

	type scored struct {
		ic    *indexedChunk
		score float64
	}
	var matched []scored
	for _, ic := range c.chunks {
		if !inScope(ic.chunk, query.GuidelineIDs, query.SectionIDs) {
			continue
		}
		if !strings.Contains(ic.lowerText, pattern) {
			continue
		}
		score := query.DefaultScore
		if marker != "" && strings.Contains(ic.lowerText, marker) {
			score = query.MarkerScore
		}
		matched = append(matched, scored{ic: ic, score: score})
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if !a.ic.chunk.CreatedAt.Equal(b.ic.chunk.CreatedAt) {
			return a.ic.chunk.CreatedAt.After(b.ic.chunk.CreatedAt)
		}
		return a.ic.chunk.ChunkID < b.ic.chunk.ChunkID
	})
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	hits := make([]*model.SearchHit, 0, len(matched))
	for _, m := range matched {
		hits = append(hits, c.toHit(m.ic, m.score))
	}
	return hits, nil
}
