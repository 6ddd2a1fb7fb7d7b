// Package caseparse suggests a structured case input from free clinical
// text such as a discharge summary or a tumor board note.
package caseparse

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
)

// Extraction limits
const (
	MinTextLength    = 10
	MaxBiomarkers    = 20
	MaxPlanItems     = 12
	FallbackPlanSize = 6
	MaxTimeline      = 60
	MaxNoteLength    = 700
	PreviewLength    = 3000
	JSONPreviewSize  = 2000
	minPlanLine      = 8
	minDiagnosisLine = 7
)

// UnknownDiagnosis is used when no diagnosis line is found
const UnknownDiagnosis = "Не удалось автоматически определить диагноз"

var (
	ErrEmptyText    = goerr.New("case text is empty")
	ErrTextTooShort = goerr.New("case text is too short")
)

var (
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dottedPattern    = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})$`)
	isoDateInText    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	dottedInText     = regexp.MustCompile(`\b(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})\b`)
	lineDatePattern  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`)
	diagnosisPattern = regexp.MustCompile(`(?i)(?:диагноз|diagnosis)\s*[:\-]\s*([^\n\r]+)`)
	tumorPattern     = regexp.MustCompile(`(?i)рак|опухол|carcinoma|cancer|сарком|лимфом`)
	stagePattern     = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:стадия|ст\.?|stage)\s*[:\-]?\s*([^\n\r]+)`)
	biomarkerPattern = regexp.MustCompile(`(?i)(?:ER\s*[-=]?\s*\d+|PR\s*[-=]?\s*\d+|HER2\s*[-+]?\s*\d*\+?|PD-?L1\s*[^\n,;]*|BRCA1/2|BRCA1|BRCA2|KI-?67\s*[-=]?\s*\d+%?|TMB\s*[-=]?\s*[0-9.]+)`)
	listPrefix       = regexp.MustCompile(`^[-•\d.)\s]+`)
	lineBreaks       = regexp.MustCompile(`\n+`)
)

// planKeywords mark a line as part of the current treatment plan
var planKeywords = []string{
	"рекоменду", "схема", "хт", "пхт", "мхт", "терап", "операц", "химио",
	"доксорубицин", "паклитаксел", "карбоплатин", "цисплатин", "иринотекан",
	"винорельбин", "капецитабин", "атезолизумаб", "лучев", "flot", "folfox",
}

// Suggest builds a case input from free text. as_of_date is the latest
// date found in the text, or today when the text has none.
func Suggest(text string, today time.Time) *model.CaseInput {
	in := &model.CaseInput{
		Diagnosis:   detectDiagnosis(text),
		Stage:       detectStage(text),
		Biomarkers:  detectBiomarkers(text),
		CurrentPlan: detectCurrentPlan(text),
		Timeline:    detectTimeline(text),
		AsOfDate:    today.UTC().Format(time.DateOnly),
	}
	if dates := extractDates(text); len(dates) > 0 {
		in.AsOfDate = dates[len(dates)-1]
	}
	in.Normalize()
	return in
}

// Parse turns pasted text into a case suggestion. Text that already is a
// valid case input JSON document is returned as is.
func Parse(text, source string, today time.Time) (*model.CaseParseResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, goerr.Wrap(ErrEmptyText, "text is required")
	}
	length := utf8.RuneCountInString(text)
	if length < MinTextLength {
		return nil, goerr.Wrap(ErrTextTooShort, "text has no usable content", goerr.V("length", length))
	}

	result := &model.CaseParseResult{
		Source:     source,
		TextLength: length,
		Warnings:   []string{},
	}

	if in := parseCaseJSON(text); in != nil {
		result.DetectedFormat = model.DetectedFormatJSONCaseInput
		result.Preview = normalize.Truncate(text, JSONPreviewSize)
		result.CaseInput = in
		return result, nil
	}

	result.DetectedFormat = model.DetectedFormatText
	result.Preview = normalize.Truncate(text, PreviewLength)
	result.CaseInput = Suggest(text, today)
	return result, nil
}

func parseCaseJSON(text string) *model.CaseInput {
	if !strings.HasPrefix(text, "{") {
		return nil
	}
	var in model.CaseInput
	if err := json.Unmarshal([]byte(text), &in); err != nil {
		return nil
	}
	if err := in.Validate(); err != nil {
		return nil
	}
	in.Normalize()
	return &in
}

// normalizeDate converts YYYY-MM-DD and DD.MM.YY(YY) dates to YYYY-MM-DD.
// Two digit years are read as 20YY. Impossible calendar dates are rejected.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)

	var date string
	if m := isoDatePattern.FindStringSubmatch(value); m != nil {
		date = m[1] + "-" + m[2] + "-" + m[3]
	} else if m := dottedPattern.FindStringSubmatch(value); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		date = year + "-" + leftPad(m[2]) + "-" + leftPad(m[1])
	} else {
		return ""
	}

	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return ""
	}
	return date
}

func leftPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func extractDates(text string) []string {
	seen := make(map[string]struct{})
	var dates []string
	for _, re := range []*regexp.Regexp{isoDateInText, dottedInText} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			date := normalizeDate(m[1])
			if date == "" {
				continue
			}
			if _, ok := seen[date]; ok {
				continue
			}
			seen[date] = struct{}{}
			dates = append(dates, date)
		}
	}
	slices.Sort(dates)
	return dates
}

func splitLines(text string) []string {
	return lineBreaks.Split(text, -1)
}

func detectDiagnosis(text string) string {
	if m := diagnosisPattern.FindStringSubmatch(text); m != nil {
		if d := strings.TrimSpace(m[1]); d != "" {
			return d
		}
	}
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) > minDiagnosisLine && tumorPattern.MatchString(line) {
			return line
		}
	}
	return UnknownDiagnosis
}

func detectStage(text string) string {
	if m := stagePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func detectBiomarkers(text string) []string {
	markers := []string{}
	for _, m := range biomarkerPattern.FindAllString(text, -1) {
		marker := strings.Join(strings.Fields(m), " ")
		if marker == "" || slices.Contains(markers, marker) {
			continue
		}
		markers = append(markers, marker)
		if len(markers) == MaxBiomarkers {
			break
		}
	}
	return markers
}

func detectCurrentPlan(text string) []string {
	var lines []string
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(listPrefix.ReplaceAllString(line, ""))
		if utf8.RuneCountInString(line) > minPlanLine {
			lines = append(lines, line)
		}
	}

	var selected []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		if slices.ContainsFunc(planKeywords, func(k string) bool { return strings.Contains(lower, k) }) {
			selected = append(selected, line)
		}
	}
	if len(selected) > 0 {
		return selected[:min(len(selected), MaxPlanItems)]
	}
	return lines[:min(len(lines), FallbackPlanSize)]
}

func detectTimeline(text string) []model.CaseEvent {
	events := []model.CaseEvent{}
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := lineDatePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		date := normalizeDate(m[1])
		if date == "" {
			continue
		}
		events = append(events, model.CaseEvent{
			EventDate: date,
			EventType: classifyEvent(strings.ToLower(line)),
			Payload:   map[string]any{"note": normalize.Truncate(line, MaxNoteLength)},
		})
		if len(events) == MaxTimeline {
			break
		}
	}
	return events
}

func classifyEvent(lower string) string {
	switch {
	case strings.Contains(lower, "прогресс"):
		return "progression"
	case strings.Contains(lower, "консилиум"):
		return "tumor_board"
	case strings.Contains(lower, "биопс"):
		return "biopsy"
	case strings.Contains(lower, "пэт"), strings.Contains(lower, "кт"), strings.Contains(lower, "мрт"):
		return "imaging"
	case strings.Contains(lower, "курс"), strings.Contains(lower, "терап"):
		return "therapy"
	}
	return "clinical_event"
}
