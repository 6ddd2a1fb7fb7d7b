package interfaces

import (
	"context"

	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

// Repository defines the interface for data persistence
type Repository interface {
	Guideline() GuidelineRepository
	Chunk() ChunkRepository
	ValidationRun() ValidationRunRepository
	Benchmark() BenchmarkRepository
	TrialsCache() TrialsCacheRepository

	// Migrate prepares the schema. It runs at most once per handle.
	Migrate(ctx context.Context) error

	// Counts returns guideline and chunk totals
	Counts(ctx context.Context) (*model.StoreCounts, error)

	Close() error
}
