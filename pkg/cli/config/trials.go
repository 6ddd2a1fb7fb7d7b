package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/oncoguard/oncoguard/pkg/service/trials"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Trials holds configuration for the clinical trials registry
type Trials struct {
	baseURL  string
	timeout  time.Duration
	cacheTTL time.Duration
}

// Flags returns CLI flags for trials registry configuration
func (t *Trials) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "trials-base-url",
			Usage:       "ClinicalTrials.gov API base URL (empty disables live queries)",
			Category:    "Trials",
			Value:       trials.DefaultBaseURL,
			Sources:     cli.EnvVars("ONCOGUARD_TRIALS_BASE_URL"),
			Destination: &t.baseURL,
		},
		&cli.DurationFlag{
			Name:        "trials-timeout",
			Usage:       "Timeout for a single registry request",
			Category:    "Trials",
			Value:       trials.DefaultTimeout,
			Sources:     cli.EnvVars("ONCOGUARD_TRIALS_TIMEOUT"),
			Destination: &t.timeout,
		},
		&cli.DurationFlag{
			Name:        "trials-cache-ttl",
			Usage:       "How long a registry answer is served from the cache",
			Category:    "Trials",
			Value:       usecase.DefaultTrialsCacheTTL,
			Sources:     cli.EnvVars("ONCOGUARD_TRIALS_CACHE_TTL"),
			Destination: &t.cacheTTL,
		},
	}
}

// LogAttrs returns log attributes for the trials configuration
func (t *Trials) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("base_url", t.baseURL),
		slog.Duration("timeout", t.timeout),
		slog.Duration("cache_ttl", t.cacheTTL),
	}
}

// Options returns the use case options for trial search. Live registry
// queries are disabled when the base URL is empty.
func (t *Trials) Options() []usecase.Option {
	opts := []usecase.Option{}
	if t.cacheTTL > 0 {
		opts = append(opts, usecase.WithTrialsCacheTTL(t.cacheTTL))
	}
	if t.baseURL == "" {
		return opts
	}

	client := trials.New(
		trials.WithBaseURL(t.baseURL),
		trials.WithHTTPClient(&http.Client{Timeout: t.timeout}),
	)
	return append(opts, usecase.WithTrialSearcher(client))
}
