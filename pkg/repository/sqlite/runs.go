package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type validationRunRepository struct {
	db *sql.DB
}

func (r *validationRunRepository) Put(ctx context.Context, run *model.ValidationRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	result, err := json.Marshal(run.Result)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal validation result", goerr.V("run_id", run.RunID))
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO validation_runs (run_id, case_id, as_of_date, result_json, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(run.RunID), nullString(run.CaseID), run.AsOfDate, string(result),
		run.LatencyMS, formatTime(run.CreatedAt),
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
	var caseID sql.NullString
	var result, createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT run_id, case_id, as_of_date, result_json, latency_ms, created_at
		FROM validation_runs WHERE run_id = ?`, string(id),
	).Scan(&run.RunID, &caseID, &run.AsOfDate, &result, &run.LatencyMS, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(ErrNotFound, "validation run not found", goerr.V("run_id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get validation run", goerr.V("run_id", id))
	}

	run.CaseID = stringPtr(caseID)
	run.CreatedAt = parseTime(createdAt)
	run.Result = &model.ValidationResult{}
	if err := json.Unmarshal([]byte(result), run.Result); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal validation result", goerr.V("run_id", id))
	}
	return &run, nil
}

type benchmarkRepository struct {
	db *sql.DB
}

func (r *benchmarkRepository) Put(ctx context.Context, run *model.BenchmarkRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	report, err := json.Marshal(run.Report)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal benchmark report", goerr.V("bench_id", run.BenchID))
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO benchmark_runs (bench_id, dataset_version, report_json, created_at)
		VALUES (?, ?, ?, ?)`,
		string(run.BenchID), run.DatasetVersion, string(report), formatTime(run.CreatedAt),
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
	var report, createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT bench_id, dataset_version, report_json, created_at
		FROM benchmark_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`,
	).Scan(&run.BenchID, &run.DatasetVersion, &report, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest benchmark run")
	}

	run.CreatedAt = parseTime(createdAt)
	run.Report = &model.BenchmarkReport{}
	if err := json.Unmarshal([]byte(report), run.Report); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal benchmark report", goerr.V("bench_id", run.BenchID))
	}
	return &run, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
