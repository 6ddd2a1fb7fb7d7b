package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type validationRunRepository struct {
	mu   sync.RWMutex
	runs map[model.ValidationRunID][]byte
}

func newValidationRunRepository() *validationRunRepository {
	return &validationRunRepository{
		runs: make(map[model.ValidationRunID][]byte),
	}
}

// Put stores a serialized copy so later mutation by the caller cannot alter
// the record
func (r *validationRunRepository) Put(ctx context.Context, run *model.ValidationRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(run)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal validation run", goerr.V("run_id", run.RunID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.RunID]; exists {
		return goerr.Wrap(ErrAlreadyExists, "validation run already exists", goerr.V("run_id", run.RunID))
	}
	r.runs[run.RunID] = raw
	return nil
}

func (r *validationRunRepository) Get(ctx context.Context, id model.ValidationRunID) (*model.ValidationRun, error) {
	r.mu.RLock()
	raw, exists := r.runs[id]
	r.mu.RUnlock()

	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "validation run not found", goerr.V("run_id", id))
	}

	var run model.ValidationRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal validation run", goerr.V("run_id", id))
	}
	return &run, nil
}

type benchmarkEntry struct {
	id        model.BenchmarkRunID
	createdAt time.Time
	raw       []byte
}

type benchmarkRepository struct {
	mu   sync.RWMutex
	runs []benchmarkEntry
}

func newBenchmarkRepository() *benchmarkRepository {
	return &benchmarkRepository{}
}

func (r *benchmarkRepository) Put(ctx context.Context, run *model.BenchmarkRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(run)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal benchmark run", goerr.V("bench_id", run.BenchID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.runs {
		if e.id == run.BenchID {
			return goerr.Wrap(ErrAlreadyExists, "benchmark run already exists", goerr.V("bench_id", run.BenchID))
		}
	}
	r.runs = append(r.runs, benchmarkEntry{id: run.BenchID, createdAt: run.CreatedAt, raw: raw})
	return nil
}

func (r *benchmarkRepository) GetLatest(ctx context.Context) (*model.BenchmarkRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.runs) == 0 {
		return nil, nil
	}

	latest := r.runs[0]
	for _, e := range r.runs[1:] {
		if !e.createdAt.Before(latest.createdAt) {
			latest = e
		}
	}

	var run model.BenchmarkRun
	if err := json.Unmarshal(latest.raw, &run); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal benchmark run", goerr.V("bench_id", latest.id))
	}
	return &run, nil
}
