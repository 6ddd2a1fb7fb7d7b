package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/explain"
	"github.com/oncoguard/oncoguard/pkg/service/search"
	"github.com/oncoguard/oncoguard/pkg/service/trials"
)

type UseCases struct {
	repo          interfaces.Repository
	rules         *Rules
	explainer     explain.Service
	llm           bool
	scenarios     ScenarioLoader
	providers     []search.Provider
	trialSearcher trials.Searcher
	trialsTTL     time.Duration
	now           func() time.Time

	Guideline  *GuidelineUseCase
	Validation *ValidationUseCase
	Benchmark  *BenchmarkUseCase
	Explain    *ExplainUseCase
	Case       *CaseUseCase
	Trials     *TrialsUseCase
}

type Option func(*UseCases)

func WithRules(rules *Rules) Option {
	return func(uc *UseCases) {
		uc.rules = rules
	}
}

// WithExplainer sets the explanation service. llmEnabled is reported by
// Health.
func WithExplainer(svc explain.Service, llmEnabled bool) Option {
	return func(uc *UseCases) {
		uc.explainer = svc
		uc.llm = llmEnabled
	}
}

func WithScenarioLoader(loader ScenarioLoader) Option {
	return func(uc *UseCases) {
		uc.scenarios = loader
	}
}

// WithProviders replaces the default search strategies
func WithProviders(providers ...search.Provider) Option {
	return func(uc *UseCases) {
		uc.providers = providers
	}
}

// WithTrialSearcher sets the clinical trials registry client. Without it
// trial searches are answered from the cache only.
func WithTrialSearcher(searcher trials.Searcher) Option {
	return func(uc *UseCases) {
		uc.trialSearcher = searcher
	}
}

func WithTrialsCacheTTL(ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.trialsTTL = ttl
	}
}

// WithClock replaces time.Now for cache expiry and case date defaults
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		trialsTTL: DefaultTrialsCacheTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.rules == nil {
		uc.rules = DefaultRules()
	}
	if uc.explainer == nil {
		uc.explainer = explain.New(nil)
	}
	if uc.providers == nil {
		uc.providers = []search.Provider{
			search.NewIndexedText(repo.Chunk()),
			search.NewHeuristic(repo.Chunk(), search.WithMarker(uc.rules.RecommendationMarker)),
		}
	}

	uc.Guideline = NewGuidelineUseCase(repo, uc.rules, uc.providers)
	uc.Validation = NewValidationUseCase(repo, uc.rules, uc.providers, uc.Guideline)
	uc.Benchmark = NewBenchmarkUseCase(repo, uc.scenarios, uc.Validation)
	uc.Explain = NewExplainUseCase(uc.explainer, uc.Validation)
	uc.Case = NewCaseUseCase(uc.now)
	uc.Trials = NewTrialsUseCase(repo.TrialsCache(), uc.trialSearcher, uc.trialsTTL, uc.now)

	return uc
}

// Health is the service status reported by the health endpoint
type Health struct {
	Status     string `json:"status"`
	Guidelines int    `json:"guidelines"`
	Chunks     int    `json:"chunks"`
	LLMEnabled bool   `json:"llm_enabled"`
}

func (uc *UseCases) Health(ctx context.Context) (*Health, error) {
	counts, err := uc.repo.Counts(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count store records")
	}
	return &Health{
		Status:     "ok",
		Guidelines: counts.Guidelines,
		Chunks:     counts.Chunks,
		LLMEnabled: uc.llm,
	}, nil
}

// ScenarioLoader provides labeled benchmark scenarios
type ScenarioLoader interface {
	LoadScenarios(ctx context.Context) ([]*model.BenchmarkScenario, error)
}
