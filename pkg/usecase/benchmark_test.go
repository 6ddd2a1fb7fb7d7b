package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/repository/memory"
	"github.com/oncoguard/oncoguard/pkg/usecase"
)

type staticLoader struct {
	scenarios []*model.BenchmarkScenario
	err       error
}

func (l *staticLoader) LoadScenarios(ctx context.Context) ([]*model.BenchmarkScenario, error) {
	return l.scenarios, l.err
}

func scenario(id string, expected types.ValidationStatus, expectedMismatch bool, plan ...string) *model.BenchmarkScenario {
	return &model.BenchmarkScenario{
		ID:               id,
		Title:            "Сценарий " + id,
		Dataset:          types.DatasetSynthetic,
		ExpectedStatus:   expected,
		ExpectedMismatch: expectedMismatch,
		CaseInput:        *gastricCase(plan...),
	}
}

func TestRunBenchmark(t *testing.T) {
	ctx := context.Background()

	t.Run("scores scenarios", func(t *testing.T) {
		loader := &staticLoader{scenarios: []*model.BenchmarkScenario{
			scenario("tp", types.ValidationStatusReviewRequired, true, "Периоперационная химиотерапия FLOT", "Гомеопатия"),
			scenario("tn", types.ValidationStatusCompliant, false, "Периоперационная химиотерапия FLOT"),
			scenario("fp", types.ValidationStatusCompliant, false, "Гомеопатия"),
			scenario("fn", types.ValidationStatusReviewRequired, true, "Хирургическое лечение"),
		}}
		uc := usecase.New(memory.New(), usecase.WithScenarioLoader(loader))
		importDocs(t, uc, gastricCancer())

		report, err := uc.Benchmark.RunBenchmark(ctx, "")
		gt.NoError(t, err).Required()

		gt.V(t, report.DatasetVersion).Equal(usecase.DefaultDatasetVersion)
		gt.N(t, report.ScenariosTotal).Equal(4)
		gt.A(t, report.Scenarios).Length(4).Required()
		gt.V(t, report.Scenarios[0].ID).Equal("tp")
		gt.V(t, report.Scenarios[0].ActualStatus).Equal(types.ValidationStatusReviewRequired)
		gt.V(t, report.Scenarios[3].ActualStatus).Equal(types.ValidationStatusCompliant)

		gt.V(t, report.Metrics.ProtocolMatchAccuracy).Equal(0.5)
		gt.V(t, report.Metrics.MismatchDetectionPrecision).Equal(0.5)
		gt.V(t, report.Metrics.MismatchDetectionRecall).Equal(0.5)
		gt.V(t, report.Metrics.CaseCoverage).Equal(1.0)
		gt.B(t, report.Metrics.SourceTraceabilityRate > 0).True()
		gt.A(t, report.Notes).Length(3)

		latest, err := uc.Benchmark.LatestBenchmark(ctx)
		gt.NoError(t, err).Required()
		gt.B(t, latest.CreatedAt.Equal(report.CreatedAt)).True()
		gt.V(t, latest.Metrics).Equal(report.Metrics)
	})

	t.Run("precision and recall default to one", func(t *testing.T) {
		loader := &staticLoader{scenarios: []*model.BenchmarkScenario{
			scenario("a", types.ValidationStatusCompliant, false, "Периоперационная химиотерапия FLOT"),
			scenario("b", types.ValidationStatusCompliant, false, "Хирургическое лечение"),
		}}
		uc := usecase.New(memory.New(), usecase.WithScenarioLoader(loader))
		importDocs(t, uc, gastricCancer())

		report, err := uc.Benchmark.RunBenchmark(ctx, "v2")
		gt.NoError(t, err).Required()
		gt.V(t, report.DatasetVersion).Equal("v2")
		gt.V(t, report.Metrics.MismatchDetectionPrecision).Equal(1.0)
		gt.V(t, report.Metrics.MismatchDetectionRecall).Equal(1.0)
		gt.V(t, report.Metrics.ProtocolMatchAccuracy).Equal(1.0)
	})

	t.Run("no scenarios", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithScenarioLoader(&staticLoader{}))

		report, err := uc.Benchmark.RunBenchmark(ctx, "v1")
		gt.NoError(t, err).Required()
		gt.N(t, report.ScenariosTotal).Equal(0)
		gt.V(t, report.Metrics.ProtocolMatchAccuracy).Equal(0.0)
		gt.V(t, report.Metrics.MismatchDetectionPrecision).Equal(1.0)
		gt.V(t, report.Metrics.MismatchDetectionRecall).Equal(1.0)
		gt.V(t, report.Metrics.MedianValidationTime).Equal(0.0)
	})

	t.Run("requires a loader", func(t *testing.T) {
		_, err := usecase.New(memory.New()).Benchmark.RunBenchmark(ctx, "v1")
		gt.Error(t, err).Is(usecase.ErrNoScenarioLoader)
	})

	t.Run("loader failure", func(t *testing.T) {
		errLoad := errors.New("bucket unavailable")
		uc := usecase.New(memory.New(), usecase.WithScenarioLoader(&staticLoader{err: errLoad}))
		_, err := uc.Benchmark.RunBenchmark(ctx, "v1")
		gt.Error(t, err).Is(errLoad)
	})

	t.Run("persistence failure", func(t *testing.T) {
		errStore := errors.New("store unavailable")
		repo := &failingRepository{Memory: memory.New(), benchErr: errStore}
		uc := usecase.New(repo, usecase.WithScenarioLoader(&staticLoader{}))
		_, err := uc.Benchmark.RunBenchmark(ctx, "v1")
		gt.Error(t, err).Is(errStore)
	})
}

func TestLatestBenchmarkEmpty(t *testing.T) {
	report, err := usecase.New(memory.New()).Benchmark.LatestBenchmark(context.Background())
	gt.NoError(t, err).Required()
	gt.V(t, report == nil).Equal(true)
}

func TestMedian(t *testing.T) {
	gt.V(t, usecase.Median(nil)).Equal(0.0)
	gt.V(t, usecase.Median([]float64{5})).Equal(5.0)
	gt.V(t, usecase.Median([]float64{9, 1, 5})).Equal(5.0)
	gt.V(t, usecase.Median([]float64{4, 1, 3, 2})).Equal(2.5)
}
