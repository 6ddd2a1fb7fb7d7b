// Package explain produces LLM explanations of validation results: a plain
// language summary for patients and a clinical audit for doctors.
package explain

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

var (
	// ErrLLMNotConfigured is returned by operations that cannot run without an LLM
	ErrLLMNotConfigured = goerr.New("llm is not configured")

	// ErrInvalidResponse means the LLM answered with unusable content
	ErrInvalidResponse = goerr.New("invalid llm response")
)

// Service explains validation results
type Service interface {
	PatientExplanation(ctx context.Context, in *model.CaseInput, result *model.ValidationResult) (*model.PatientExplanation, error)
	DoctorReview(ctx context.Context, in *model.CaseInput, result *model.ValidationResult) (*model.DoctorReview, error)
}

//go:embed prompt/patient.md
var patientPromptTmpl string

//go:embed prompt/review.md
var reviewPromptTmpl string

var (
	patientPrompt = template.Must(template.New("patient").Parse(patientPromptTmpl))
	reviewPrompt  = template.Must(template.New("review").Parse(reviewPromptTmpl))
)

const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-2.5-flash"
)

// LLM implements Service on top of a gollem client. A nil client is allowed:
// patient explanations then use the deterministic fallback and doctor reviews
// fail with ErrLLMNotConfigured.
type LLM struct {
	client   gollem.LLMClient
	provider string
	model    string
}

var _ Service = &LLM{}

type Option func(*LLM)

// WithModel sets the provider and model names reported in doctor reviews
func WithModel(provider, modelName string) Option {
	return func(l *LLM) {
		l.provider = provider
		l.model = modelName
	}
}

func New(client gollem.LLMClient, opts ...Option) *LLM {
	l := &LLM{
		client:   client,
		provider: DefaultProvider,
		model:    DefaultModel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enabled reports whether an LLM client is configured
func (l *LLM) Enabled() bool {
	return l.client != nil
}

type promptInput struct {
	Diagnosis  string
	Stage      string
	Biomarkers string
	AsOfDate   string
	CaseJSON   string
	ResultJSON string
}

func buildPrompt(tmpl *template.Template, in *model.CaseInput, result *model.ValidationResult) (string, error) {
	caseJSON, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal case input")
	}
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal validation result")
	}

	data := promptInput{
		Diagnosis:  in.Diagnosis,
		Stage:      in.Stage,
		Biomarkers: strings.Join(in.Biomarkers, ", "),
		AsOfDate:   in.AsOfDate,
		CaseJSON:   string(caseJSON),
		ResultJSON: string(resultJSON),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to execute prompt template", goerr.V("template", tmpl.Name()))
	}
	return buf.String(), nil
}

// generateJSON runs a single structured generation and decodes the first
// response text into out
func (l *LLM) generateJSON(ctx context.Context, systemPrompt string, schema *gollem.Parameter, prompt string, out any) error {
	session, err := l.client.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create llm session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(prompt)})
	if err != nil {
		return goerr.Wrap(err, "failed to generate content")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return goerr.Wrap(ErrInvalidResponse, "llm returned empty result")
	}

	raw := extractJSONObject(strings.Join(resp.Texts, ""))
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return goerr.Wrap(ErrInvalidResponse, "failed to parse llm response JSON",
			goerr.V("response", resp.Texts[0]),
			goerr.V("error", err.Error()),
		)
	}
	return nil
}

// extractJSONObject trims anything around the outermost JSON object
func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}
