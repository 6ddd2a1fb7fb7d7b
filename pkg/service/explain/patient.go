package explain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

const patientSystemPrompt = "Ты помогаешь пациенту понять рекомендации. Не назначай лечение, а объясняй риски и вопросы врачу."

var patientSchema = &gollem.Parameter{
	Title:       "PatientExplanation",
	Description: "Plain language explanation of a treatment plan check for a patient",
	Type:        gollem.TypeObject,
	Properties: map[string]*gollem.Parameter{
		"plain_summary": {
			Type:        gollem.TypeString,
			Description: "Short plain language summary of the check result. No treatment prescriptions.",
			Required:    true,
		},
		"why_this_is_recommended": {
			Type:        gollem.TypeString,
			Description: "Why the guideline steps matter for this case, in plain language.",
			Required:    true,
		},
		"questions_for_doctor": {
			Type:        gollem.TypeArray,
			Description: "Questions the patient may ask the attending doctor.",
			Items:       &gollem.Parameter{Type: gollem.TypeString},
			Required:    true,
		},
	},
}

type patientResponse struct {
	PlainSummary         string   `json:"plain_summary"`
	WhyThisIsRecommended string   `json:"why_this_is_recommended"`
	QuestionsForDoctor   []string `json:"questions_for_doctor"`
}

// PatientExplanation asks the LLM for a patient explanation and falls back
// to FallbackPatientExplanation when no LLM is configured or the call fails.
// It never returns an error for LLM failures.
func (l *LLM) PatientExplanation(ctx context.Context, in *model.CaseInput, result *model.ValidationResult) (*model.PatientExplanation, error) {
	if l.client == nil {
		return FallbackPatientExplanation(in, result), nil
	}

	explanation, err := l.generatePatientExplanation(ctx, in, result)
	if err != nil {
		logging.From(ctx).Warn("patient explanation fell back to template",
			slog.Any("error", err),
			slog.String("provider", l.provider),
		)
		return FallbackPatientExplanation(in, result), nil
	}
	return explanation, nil
}

func (l *LLM) generatePatientExplanation(ctx context.Context, in *model.CaseInput, result *model.ValidationResult) (*model.PatientExplanation, error) {
	prompt, err := buildPrompt(patientPrompt, in, result)
	if err != nil {
		return nil, err
	}

	var resp patientResponse
	if err := l.generateJSON(ctx, patientSystemPrompt, patientSchema, prompt, &resp); err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.PlainSummary) == "" || strings.TrimSpace(resp.WhyThisIsRecommended) == "" {
		return nil, goerr.Wrap(ErrInvalidResponse, "patient explanation is incomplete")
	}
	questions := resp.QuestionsForDoctor
	if questions == nil {
		questions = []string{}
	}

	return &model.PatientExplanation{
		PlainSummary:         resp.PlainSummary,
		WhyThisIsRecommended: resp.WhyThisIsRecommended,
		QuestionsForDoctor:   questions,
		Sources:              model.SourcesOf(result),
		Generated:            true,
	}, nil
}

var defaultPatientQuestions = []string{
	"Какие пункты моего текущего плана являются приоритетными прямо сейчас?",
	"Есть ли обследования или анализы, которые нужно добавить на этом этапе?",
	"Какие риски и побочные эффекты наиболее важны именно в моей ситуации?",
}

// FallbackPatientExplanation renders a deterministic explanation from the
// validation result alone
func FallbackPatientExplanation(in *model.CaseInput, result *model.ValidationResult) *model.PatientExplanation {
	statusText := "Есть пункты, которые требуют дополнительной проверки врачом по клиническим рекомендациям."
	if result.Status == types.ValidationStatusCompliant {
		statusText = "Текущий план в целом совпадает с рекомендациями, но финальное решение принимает лечащий врач."
	}

	mismatchText := "Критичных несовпадений в переданном плане не найдено."
	if len(result.Mismatches) > 0 {
		mismatchText = fmt.Sprintf("Пункты для уточнения: %s.", strings.Join(result.Mismatches, ", "))
	}

	missingText := "Дополнительные обязательные шаги не выделены автоматически."
	if len(result.MissingActions) > 0 {
		missing := result.MissingActions[:min(3, len(result.MissingActions))]
		missingText = fmt.Sprintf("В рекомендациях дополнительно встречаются шаги: %s.", strings.Join(missing, "; "))
	}

	return &model.PatientExplanation{
		PlainSummary: fmt.Sprintf("Диагноз: %s. %s %s", in.Diagnosis, statusText, mismatchText),
		WhyThisIsRecommended: fmt.Sprintf("%s Проверка выполнена по версиям клинических рекомендаций, действовавшим на дату %s.",
			missingText, in.AsOfDate),
		QuestionsForDoctor: append([]string(nil), defaultPatientQuestions...),
		Sources:            model.SourcesOf(result),
		Generated:          false,
	}
}
