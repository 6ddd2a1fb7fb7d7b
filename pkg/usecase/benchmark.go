package usecase

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

// DefaultDatasetVersion labels reports when the caller gives no version
const DefaultDatasetVersion = "v1"

var benchmarkNotes = []string{
	"Ретроспективные, синтетические и литературные сценарии выполнены текущим rule engine.",
	"Patient-mode использует LLM-объяснение поверх результатов проверки.",
	"Метрики предназначены для итераций MVP и не являются клиническими claims.",
}

type BenchmarkUseCase struct {
	repo       interfaces.Repository
	loader     ScenarioLoader
	validation *ValidationUseCase
}

func NewBenchmarkUseCase(repo interfaces.Repository, loader ScenarioLoader, validation *ValidationUseCase) *BenchmarkUseCase {
	return &BenchmarkUseCase{
		repo:       repo,
		loader:     loader,
		validation: validation,
	}
}

// RunBenchmark validates every labeled scenario, scores the outcomes and
// records the report
func (uc *BenchmarkUseCase) RunBenchmark(ctx context.Context, datasetVersion string) (*model.BenchmarkReport, error) {
	if uc.loader == nil {
		return nil, goerr.Wrap(ErrNoScenarioLoader, "cannot run benchmark")
	}
	if datasetVersion == "" {
		datasetVersion = DefaultDatasetVersion
	}

	scenarios, err := uc.loader.LoadScenarios(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load benchmark scenarios", goerr.V(DatasetVersionKey, datasetVersion))
	}

	var (
		statusCorrect, tp, fp, fn, covered int
		traceabilitySum                    float64
		latencies                          []float64
	)
	outcomes := make([]model.ScenarioOutcome, 0, len(scenarios))

	for _, scenario := range scenarios {
		in := scenario.CaseInput
		started := time.Now()
		result, err := uc.validation.ValidateCase(ctx, &in)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to validate benchmark scenario", goerr.V(model.ScenarioIDKey, scenario.ID))
		}
		elapsed := time.Since(started).Milliseconds()

		if result.Status == scenario.ExpectedStatus {
			statusCorrect++
		}

		predicted := result.PredictsMismatch()
		switch {
		case predicted && scenario.ExpectedMismatch:
			tp++
		case predicted && !scenario.ExpectedMismatch:
			fp++
		case !predicted && scenario.ExpectedMismatch:
			fn++
		}

		if len(result.Evidence) > 0 {
			covered++
		}
		traceabilitySum += result.SourceTraceabilityRate

		latency := max(elapsed, result.LatencyMS)
		latencies = append(latencies, float64(latency))

		outcomes = append(outcomes, model.ScenarioOutcome{
			ID:             scenario.ID,
			Title:          scenario.Title,
			ExpectedStatus: scenario.ExpectedStatus,
			ActualStatus:   result.Status,
			LatencyMS:      latency,
			EvidenceCount:  len(result.Evidence),
		})
	}

	total := float64(max(1, len(scenarios)))
	report := &model.BenchmarkReport{
		DatasetVersion: datasetVersion,
		ScenariosTotal: len(scenarios),
		Scenarios:      outcomes,
		Metrics: model.BenchmarkMetrics{
			ProtocolMatchAccuracy:      round4(float64(statusCorrect) / total),
			MismatchDetectionPrecision: round4(ratioOrOne(tp, tp+fp)),
			MismatchDetectionRecall:    round4(ratioOrOne(tp, tp+fn)),
			MedianValidationTime:       round4(median(latencies)),
			CaseCoverage:               round4(float64(covered) / total),
			SourceTraceabilityRate:     round4(traceabilitySum / total),
		},
		Notes:     append([]string(nil), benchmarkNotes...),
		CreatedAt: time.Now().UTC(),
	}

	run := &model.BenchmarkRun{
		BenchID:        model.NewBenchmarkRunID(),
		DatasetVersion: datasetVersion,
		Report:         report,
		CreatedAt:      report.CreatedAt,
	}
	if err := uc.repo.Benchmark().Put(ctx, run); err != nil {
		return nil, goerr.Wrap(err, "failed to save benchmark run", goerr.V("bench_id", run.BenchID))
	}

	logging.From(ctx).Info("benchmark completed",
		slog.String("bench_id", string(run.BenchID)),
		slog.String("dataset_version", datasetVersion),
		slog.Int("scenarios", len(scenarios)),
		slog.Float64("accuracy", report.Metrics.ProtocolMatchAccuracy),
	)
	return report, nil
}

// LatestBenchmark returns the most recent report, or nil when no benchmark
// has run
func (uc *BenchmarkUseCase) LatestBenchmark(ctx context.Context) (*model.BenchmarkReport, error) {
	run, err := uc.repo.Benchmark().GetLatest(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get latest benchmark run")
	}
	if run == nil {
		return nil, nil
	}
	return run.Report, nil
}

// ratioOrOne is num/den, or 1 when den is zero
func ratioOrOne(num, den int) float64 {
	if den == 0 {
		return 1
	}
	return float64(num) / float64(den)
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
