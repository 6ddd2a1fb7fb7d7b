package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/oncoguard/oncoguard/pkg/service/explain"
	"github.com/urfave/cli/v3"
)

// Gemini holds configuration for the Gemini LLM client
type Gemini struct {
	projectID string
	location  string
	model     string
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("ONCOGUARD_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("ONCOGUARD_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model used for explanations and doctor reviews",
			Category:    "LLM",
			Value:       explain.DefaultModel,
			Sources:     cli.EnvVars("ONCOGUARD_GEMINI_MODEL"),
			Destination: &g.model,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.String("model", g.model),
	}
}

// Configure creates a new Gemini LLM client from the configured flags.
// Returns nil if projectID is not configured (LLM explanations will fall back).
func (g *Gemini) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if g.projectID == "" {
		return nil, nil
	}

	modelName := g.model
	if modelName == "" {
		modelName = explain.DefaultModel
	}

	client, err := gemini.New(ctx, g.projectID, g.location, gemini.WithModel(modelName))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	return client, nil
}

// Explainer builds the explanation service. Without a configured project the
// service only produces fallback explanations.
func (g *Gemini) Explainer(ctx context.Context) (*explain.LLM, error) {
	client, err := g.Configure(ctx)
	if err != nil {
		return nil, err
	}

	modelName := g.model
	if modelName == "" {
		modelName = explain.DefaultModel
	}
	return explain.New(client, explain.WithModel(explain.DefaultProvider, modelName)), nil
}
