package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/service/dataset"
	"github.com/urfave/cli/v3"
)

// Dataset holds the location of the benchmark scenario files
type Dataset struct {
	location string
}

// Flags returns CLI flags for dataset configuration
func (d *Dataset) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "benchmark-dir",
			Usage:       "Benchmark scenario directory or gs://bucket/prefix",
			Category:    "Benchmark",
			Value:       "data/benchmark",
			Sources:     cli.EnvVars("ONCOGUARD_BENCHMARK_DIR"),
			Destination: &d.location,
		},
	}
}

// LogAttrs returns log attributes for the dataset configuration
func (d *Dataset) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.String("location", d.location)}
}

// Configure opens the scenario loader. The caller closes it.
func (d *Dataset) Configure(ctx context.Context) (*dataset.Loader, error) {
	if d.location == "" {
		return nil, goerr.Wrap(ErrInvalidConfig, "benchmark-dir is required")
	}
	loader, err := dataset.Open(ctx, d.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open benchmark dataset", goerr.V("location", d.location))
	}
	return loader, nil
}
