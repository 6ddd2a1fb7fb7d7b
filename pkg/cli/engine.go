package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/cli/config"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// engine groups the flags every command touching the store needs
type engine struct {
	repo   config.Repository
	rules  config.Rules
	gemini config.Gemini
	trials config.Trials
}

func (e *engine) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, e.repo.Flags()...)
	flags = append(flags, e.rules.Flags()...)
	flags = append(flags, e.gemini.Flags()...)
	flags = append(flags, e.trials.Flags()...)
	return flags
}

// build opens the repository and wires the use cases. The returned function
// closes the repository.
func (e *engine) build(ctx context.Context, opts ...usecase.Option) (*usecase.UseCases, func(), error) {
	rules, err := e.rules.Configure()
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to load rules")
	}

	explainer, err := e.gemini.Explainer(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to configure explainer")
	}

	repo, err := e.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	logging.Default().Info("Engine configured",
		"repository", e.repo,
		"rules", e.rules.LogAttrs(),
		"gemini", e.gemini.LogAttrs(),
		"trials", e.trials.LogAttrs(),
		"llm_enabled", explainer.Enabled(),
	)

	ucOpts := append([]usecase.Option{
		usecase.WithRules(rules),
		usecase.WithExplainer(explainer, explainer.Enabled()),
	}, e.trials.Options()...)
	ucOpts = append(ucOpts, opts...)

	return usecase.New(repo, ucOpts...), closeRepository(repo), nil
}

func closeRepository(repo interfaces.Repository) func() {
	return func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}
}
