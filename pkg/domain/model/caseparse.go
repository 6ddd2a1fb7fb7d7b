package model

// Case parse formats
const (
	DetectedFormatText          = "text"
	DetectedFormatJSONCaseInput = "json_case_input"
)

// CaseParseResult is a case input suggested from free text, with a preview
// of the text it was read from
type CaseParseResult struct {
	Source         string     `json:"source"`
	DetectedFormat string     `json:"detected_format"`
	TextLength     int        `json:"text_length"`
	Preview        string     `json:"preview"`
	Warnings       []string   `json:"warnings"`
	CaseInput      *CaseInput `json:"case_input"`
}
