package caseparse_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/caseparse"
)

var today = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const dischargeNote = `Выписка из истории болезни
Диагноз: Рак желудка cT3N1M0
Стадия: III
ИГХ: HER2 1+, PD-L1 CPS 5, Ki-67 40%
12.01.2021 Биопсия желудка, аденокарцинома
2021-02-03 Консилиум: периоперационная химиотерапия
15.02.21 КТ органов брюшной полости
1. Периоперационная химиотерапия FLOT 4 курса
2. Гастрэктомия D2
`

func TestSuggest(t *testing.T) {
	in := caseparse.Suggest(dischargeNote, today)

	gt.V(t, in.Diagnosis).Equal("Рак желудка cT3N1M0")
	gt.V(t, in.Stage).Equal("III")
	gt.A(t, in.Biomarkers).Equal([]string{"HER2 1+", "PD-L1 CPS 5", "Ki-67 40%"})
	gt.V(t, in.AsOfDate).Equal("2021-02-15")

	gt.A(t, in.Timeline).Length(3).Required()
	gt.V(t, in.Timeline[0].EventDate).Equal("2021-01-12")
	gt.V(t, in.Timeline[0].EventType).Equal("biopsy")
	gt.V(t, in.Timeline[1].EventDate).Equal("2021-02-03")
	gt.V(t, in.Timeline[1].EventType).Equal("tumor_board")
	gt.V(t, in.Timeline[2].EventDate).Equal("2021-02-15")
	gt.V(t, in.Timeline[2].EventType).Equal("imaging")
	gt.V(t, in.Timeline[2].Payload["note"]).Equal("15.02.21 КТ органов брюшной полости")

	gt.A(t, in.CurrentPlan).Has("Периоперационная химиотерапия FLOT 4 курса")
	gt.A(t, in.CurrentPlan).NotHas("Гастрэктомия D2")

	gt.NoError(t, in.Validate())
}

func TestSuggest_Fallbacks(t *testing.T) {
	in := caseparse.Suggest("Пациентка наблюдается амбулаторно\nжалоб не предъявляет", today)

	gt.V(t, in.Diagnosis).Equal(caseparse.UnknownDiagnosis)
	gt.V(t, in.Stage).Equal("")
	gt.V(t, in.AsOfDate).Equal("2025-06-01")
	gt.A(t, in.Biomarkers).Length(0)
	gt.A(t, in.Timeline).Length(0)
	gt.A(t, in.CurrentPlan).Equal([]string{
		"Пациентка наблюдается амбулаторно",
		"жалоб не предъявляет",
	})
}

func TestSuggest_DiagnosisFromTumorLine(t *testing.T) {
	in := caseparse.Suggest("Жалобы на слабость\nМелкоклеточный рак лёгкого\n", today)
	gt.V(t, in.Diagnosis).Equal("Мелкоклеточный рак лёгкого")
}

func TestSuggest_StageNeedsWordStart(t *testing.T) {
	in := caseparse.Suggest("Диагноз: рак желудка\nПроведена гастрэктомия\n", today)
	gt.V(t, in.Stage).Equal("")
}

func TestSuggest_RejectsImpossibleDates(t *testing.T) {
	in := caseparse.Suggest("Диагноз: рак желудка\n31.02.2021 осмотр\n01.03.2021 осмотр", today)
	gt.V(t, in.AsOfDate).Equal("2021-03-01")
	gt.A(t, in.Timeline).Length(1)
}

func TestSuggest_Limits(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Диагноз: рак желудка\n")
	for i := 1; i <= 28; i++ {
		sb.WriteString("Курс химиотерапии продолжен\n")
	}
	in := caseparse.Suggest(sb.String(), today)
	gt.A(t, in.CurrentPlan).Length(caseparse.MaxPlanItems)
}

func TestParse(t *testing.T) {
	t.Run("free text", func(t *testing.T) {
		result, err := caseparse.Parse("  "+dischargeNote+"  ", "note.txt", today)
		gt.NoError(t, err).Required()
		gt.V(t, result.Source).Equal("note.txt")
		gt.V(t, result.DetectedFormat).Equal(model.DetectedFormatText)
		gt.V(t, result.Preview).Equal(strings.TrimSpace(dischargeNote))
		gt.A(t, result.Warnings).Length(0)
		gt.V(t, result.CaseInput.Stage).Equal("III")
	})

	t.Run("case input JSON is passed through", func(t *testing.T) {
		doc := `{"diagnosis": "Рак молочной железы", "stage": "II", "as_of_date": "2024-01-10", "current_plan": ["Лампэктомия"]}`
		result, err := caseparse.Parse(doc, "pasted", today)
		gt.NoError(t, err).Required()
		gt.V(t, result.DetectedFormat).Equal(model.DetectedFormatJSONCaseInput)
		gt.V(t, result.CaseInput.Diagnosis).Equal("Рак молочной железы")
		gt.A(t, result.CaseInput.CurrentPlan).Equal([]string{"Лампэктомия"})
		gt.B(t, result.CaseInput.Timeline != nil).True()
	})

	t.Run("invalid case JSON falls back to text", func(t *testing.T) {
		result, err := caseparse.Parse(`{"diagnosis": "Р", "as_of_date": ""}`, "pasted", today)
		gt.NoError(t, err).Required()
		gt.V(t, result.DetectedFormat).Equal(model.DetectedFormatText)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := caseparse.Parse("   ", "pasted", today)
		gt.Error(t, err).Is(caseparse.ErrEmptyText)
	})

	t.Run("short text", func(t *testing.T) {
		_, err := caseparse.Parse("рак", "pasted", today)
		gt.Error(t, err).Is(caseparse.ErrTextTooShort)
	})
}
