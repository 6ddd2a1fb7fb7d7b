package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/caseparse"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

// DefaultCaseSource names text submitted without a file name
const DefaultCaseSource = "pasted_text"

type CaseUseCase struct {
	now func() time.Time
}

func NewCaseUseCase(now func() time.Time) *CaseUseCase {
	return &CaseUseCase{now: now}
}

// ParseText suggests a case input from free text. The suggestion is not
// validated; callers review it before submitting it for validation.
func (uc *CaseUseCase) ParseText(ctx context.Context, text, source string) (*model.CaseParseResult, error) {
	if strings.TrimSpace(source) == "" {
		source = DefaultCaseSource
	}

	result, err := caseparse.Parse(text, source, uc.now())
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("case text parsed",
		slog.String("source", result.Source),
		slog.String("format", result.DetectedFormat),
		slog.Int("text_length", result.TextLength),
		slog.Int("timeline_events", len(result.CaseInput.Timeline)),
	)
	return result, nil
}
