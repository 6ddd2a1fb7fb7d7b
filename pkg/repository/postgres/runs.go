package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type validationRunRepository struct {
	pool *pgxpool.Pool
}

func (r *validationRunRepository) Put(ctx context.Context, run *model.ValidationRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	result, err := json.Marshal(run.Result)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal validation result", goerr.V("run_id", run.RunID))
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO validation_runs (run_id, case_id, as_of_date, result_json, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(run.RunID), run.CaseID, run.AsOfDate, result, run.LatencyMS, run.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(ErrAlreadyExists, "validation run already exists", goerr.V("run_id", run.RunID))
		}
		return goerr.Wrap(err, "failed to insert validation run", goerr.V("run_id", run.RunID))
	}
	return nil
}

func (r *validationRunRepository) Get(ctx context.Context, id model.ValidationRunID) (*model.ValidationRun, error) {
	var run model.ValidationRun
	var runID string
	var result []byte
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, case_id, as_of_date, result_json, latency_ms, created_at
		FROM validation_runs WHERE run_id = $1`, string(id),
	).Scan(&runID, &run.CaseID, &run.AsOfDate, &result, &run.LatencyMS, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "validation run not found", goerr.V("run_id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get validation run", goerr.V("run_id", id))
	}

	run.RunID = model.ValidationRunID(runID)
	run.Result = &model.ValidationResult{}
	if err := json.Unmarshal(result, run.Result); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal validation result", goerr.V("run_id", id))
	}
	return &run, nil
}

type benchmarkRepository struct {
	pool *pgxpool.Pool
}

func (r *benchmarkRepository) Put(ctx context.Context, run *model.BenchmarkRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal benchmark report", goerr.V("bench_id", run.BenchID))
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO benchmark_runs (bench_id, dataset_version, report_json, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(run.BenchID), run.DatasetVersion, report, run.CreatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(ErrAlreadyExists, "benchmark run already exists", goerr.V("bench_id", run.BenchID))
		}
		return goerr.Wrap(err, "failed to insert benchmark run", goerr.V("bench_id", run.BenchID))
	}
	return nil
}

func (r *benchmarkRepository) GetLatest(ctx context.Context) (*model.BenchmarkRun, error) {
	var run model.BenchmarkRun
	var benchID string
	var report []byte
	err := r.pool.QueryRow(ctx, `
		SELECT bench_id, dataset_version, report_json, created_at
		FROM benchmark_runs
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`,
	).Scan(&benchID, &run.DatasetVersion, &report, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest benchmark run")
	}

	run.BenchID = model.BenchmarkRunID(benchID)
	run.Report = &model.BenchmarkReport{}
	if err := json.Unmarshal(report, run.Report); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal benchmark report", goerr.V("bench_id", benchID))
	}
	return &run, nil
}
