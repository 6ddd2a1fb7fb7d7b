package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/repository/memory"
	"github.com/oncoguard/oncoguard/pkg/usecase"
)

func TestCase_ParseText(t *testing.T) {
	ctx := context.Background()

	t.Run("suggested case validates against imported guideline", func(t *testing.T) {
		uc := usecase.New(memory.New())
		importDocs(t, uc, gastricCancer())

		note := "Диагноз: Рак желудка\nСтадия: III\n01.03.2021 Консилиум\n- Периоперационная химиотерапия FLOT\n"
		parsed, err := uc.Case.ParseText(ctx, note, "")
		gt.NoError(t, err).Required()
		gt.V(t, parsed.Source).Equal(usecase.DefaultCaseSource)
		gt.V(t, parsed.DetectedFormat).Equal(model.DetectedFormatText)
		gt.V(t, parsed.CaseInput.AsOfDate).Equal("2021-03-01")
		gt.A(t, parsed.CaseInput.CurrentPlan).Equal([]string{"Периоперационная химиотерапия FLOT"})
		gt.A(t, parsed.CaseInput.Timeline).Length(1).Required()
		gt.V(t, parsed.CaseInput.Timeline[0].EventType).Equal("tumor_board")

		result, err := uc.Validation.ValidateCase(ctx, parsed.CaseInput)
		gt.NoError(t, err).Required()
		gt.V(t, result.Status).Equal(types.ValidationStatusCompliant)
		gt.A(t, result.AppliedGuidelineVersions).Length(1).Required()
		gt.V(t, result.AppliedGuidelineVersions[0].ID).Equal("574_1")
	})

	t.Run("as_of_date defaults to the clock date", func(t *testing.T) {
		clock := &testClock{now: time.Date(2025, 4, 2, 23, 0, 0, 0, time.UTC)}
		uc := usecase.New(memory.New(), usecase.WithClock(clock.Now))

		parsed, err := uc.Case.ParseText(ctx, "Диагноз: меланома кожи", "note.txt")
		gt.NoError(t, err).Required()
		gt.V(t, parsed.Source).Equal("note.txt")
		gt.V(t, parsed.CaseInput.AsOfDate).Equal("2025-04-02")
	})

	t.Run("empty and short text", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.Case.ParseText(ctx, "\n\n", "")
		gt.Error(t, err).Is(usecase.ErrEmptyCaseText)

		_, err = uc.Case.ParseText(ctx, "рак", "")
		gt.Error(t, err).Is(usecase.ErrCaseTextTooShort)
	})
}
