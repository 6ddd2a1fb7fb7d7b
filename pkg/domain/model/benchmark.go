package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
)

// BenchmarkScenario is a labeled case replayed by the benchmark harness
type BenchmarkScenario struct {
	ID               string                 `json:"id"`
	Title            string                 `json:"title"`
	Dataset          types.Dataset          `json:"dataset"`
	ExpectedStatus   types.ValidationStatus `json:"expected_status"`
	ExpectedMismatch bool                   `json:"expected_mismatch"`
	CaseInput        CaseInput              `json:"case_input"`
}

// Validate checks that the scenario is usable as labeled input
func (s *BenchmarkScenario) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return goerr.Wrap(ErrInvalidScenario, "scenario id is empty")
	}
	if !s.ExpectedStatus.IsValid() {
		return goerr.Wrap(ErrInvalidScenario, "invalid expected_status",
			goerr.V(ScenarioIDKey, s.ID),
			goerr.V("expected_status", s.ExpectedStatus))
	}
	if err := s.CaseInput.Validate(); err != nil {
		return goerr.Wrap(err, "invalid scenario case input", goerr.V(ScenarioIDKey, s.ID))
	}
	return nil
}

// BenchmarkMetrics are aggregate scores over a scenario set
type BenchmarkMetrics struct {
	ProtocolMatchAccuracy      float64 `json:"protocol_match_accuracy"`
	MismatchDetectionPrecision float64 `json:"mismatch_detection_precision"`
	MismatchDetectionRecall    float64 `json:"mismatch_detection_recall"`
	MedianValidationTime       float64 `json:"median_validation_time"`
	CaseCoverage               float64 `json:"case_coverage"`
	SourceTraceabilityRate     float64 `json:"source_traceability_rate"`
}

// ScenarioOutcome is the per-scenario detail of a benchmark report
type ScenarioOutcome struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	ExpectedStatus types.ValidationStatus `json:"expected_status"`
	ActualStatus   types.ValidationStatus `json:"actual_status"`
	LatencyMS      int64                  `json:"latency_ms"`
	EvidenceCount  int                    `json:"evidence_count"`
}

// BenchmarkReport is the result of one benchmark run
type BenchmarkReport struct {
	DatasetVersion string            `json:"dataset_version"`
	ScenariosTotal int               `json:"scenarios_total"`
	Scenarios      []ScenarioOutcome `json:"scenarios"`
	Metrics        BenchmarkMetrics  `json:"metrics"`
	Notes          []string          `json:"notes"`
	CreatedAt      time.Time         `json:"created_at"`
}

// BenchmarkRunID is a UUID-based identifier of a persisted benchmark run
type BenchmarkRunID string

// NewBenchmarkRunID generates a new UUID v4 BenchmarkRunID
func NewBenchmarkRunID() BenchmarkRunID {
	return BenchmarkRunID(uuid.New().String())
}

// BenchmarkRun is the append-only record of one benchmark report
type BenchmarkRun struct {
	BenchID        BenchmarkRunID   `json:"bench_id"`
	DatasetVersion string           `json:"dataset_version"`
	Report         *BenchmarkReport `json:"report"`
	CreatedAt      time.Time        `json:"created_at"`
}
