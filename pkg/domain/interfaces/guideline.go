package interfaces

import (
	"context"

	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

// GuidelineRepository stores guideline versions with their sections and chunks
type GuidelineRepository interface {
	// Save upserts the guideline and replaces all of its sections and chunks
	// in one transaction
	Save(ctx context.Context, guideline *model.GuidelineVersion, sections []*model.GuidelineSection, chunks []*model.EvidenceChunk) error

	// FindByName returns guidelines whose lowercased name contains any of
	// patterns, ordered by publish date descending
	FindByName(ctx context.Context, patterns []string) ([]*model.GuidelineVersion, error)

	// ListRecent returns the most recently published guidelines
	ListRecent(ctx context.Context, limit int, oncologyOnly bool) ([]*model.GuidelineVersion, error)

	// ListSources returns guidelines with their section counts, newest first
	ListSources(ctx context.Context, limit int) ([]*model.GuidelineSource, error)
}

// ChunkRepository runs read-only searches over evidence chunks
type ChunkRepository interface {
	// FullTextSearch ranks chunks by relevance. Lower score is better.
	FullTextSearch(ctx context.Context, query model.FullTextQuery) ([]*model.SearchHit, error)

	// SubstringSearch returns chunks containing the query pattern, marker
	// chunks first and newest first within equal scores
	SubstringSearch(ctx context.Context, query model.SubstringQuery) ([]*model.SearchHit, error)
}

// ValidationRunRepository is the append-only log of validations
type ValidationRunRepository interface {
	Put(ctx context.Context, run *model.ValidationRun) error
	Get(ctx context.Context, id model.ValidationRunID) (*model.ValidationRun, error)
}

// BenchmarkRepository is the append-only log of benchmark reports
type BenchmarkRepository interface {
	Put(ctx context.Context, run *model.BenchmarkRun) error

	// GetLatest returns the most recent run by creation time, or nil when
	// none exists
	GetLatest(ctx context.Context) (*model.BenchmarkRun, error)
}

// TrialsCacheRepository keeps the last registry answer per query key
type TrialsCacheRepository interface {
	// Get returns the cached entry for key, or nil when none exists
	Get(ctx context.Context, key string) (*model.TrialsCacheEntry, error)

	// Put replaces the entry stored under entry.QueryKey
	Put(ctx context.Context, entry *model.TrialsCacheEntry) error
}
