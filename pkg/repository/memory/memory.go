package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

var (
	ErrNotFound      = goerr.New("not found")
	ErrAlreadyExists = goerr.New("already exists")
)

// Memory keeps the guideline corpus and audit logs in process memory
type Memory struct {
	corpus        *corpus
	guideline     *guidelineRepository
	chunk         *chunkRepository
	validationRun *validationRunRepository
	benchmark     *benchmarkRepository
	trialsCache   *trialsCacheRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	c := newCorpus()
	return &Memory{
		corpus:        c,
		guideline:     &guidelineRepository{corpus: c},
		chunk:         &chunkRepository{corpus: c},
		validationRun: newValidationRunRepository(),
		benchmark:     newBenchmarkRepository(),
		trialsCache:   newTrialsCacheRepository(),
	}
}

func (m *Memory) Guideline() interfaces.GuidelineRepository {
	return m.guideline
}

func (m *Memory) Chunk() interfaces.ChunkRepository {
	return m.chunk
}

func (m *Memory) ValidationRun() interfaces.ValidationRunRepository {
	return m.validationRun
}

func (m *Memory) Benchmark() interfaces.BenchmarkRepository {
	return m.benchmark
}

func (m *Memory) TrialsCache() interfaces.TrialsCacheRepository {
	return m.trialsCache
}

// Migrate is a no-op for the in-memory store
func (m *Memory) Migrate(ctx context.Context) error {
	return nil
}

func (m *Memory) Counts(ctx context.Context) (*model.StoreCounts, error) {
	m.corpus.mu.RLock()
	defer m.corpus.mu.RUnlock()

	return &model.StoreCounts{
		Guidelines: len(m.corpus.guidelines),
		Chunks:     len(m.corpus.chunks),
	}, nil
}

func (m *Memory) Close() error {
	return nil
}
