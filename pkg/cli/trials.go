package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdTrials() *cli.Command {
	var query string
	var recruiting bool
	var outputPath string
	var eng engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Condition to search for, e.g. gastric cancer",
			Required:    true,
			Destination: &query,
		},
		&cli.BoolFlag{
			Name:        "recruiting",
			Usage:       "Keep only recruiting or soon recruiting studies",
			Destination: &recruiting,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the result to a file instead of stdout",
			Destination: &outputPath,
		},
	}
	flags = append(flags, eng.Flags()...)

	return &cli.Command{
		Name:  "trials",
		Usage: "Search the clinical trials registry through the local cache",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := eng.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			result, err := uc.Trials.Search(ctx, query, recruiting)
			if err != nil {
				return goerr.Wrap(err, "failed to search trials", goerr.V("query", query))
			}

			if err := writeJSON(ctx, os.Stdout, outputPath, result); err != nil {
				return err
			}
			logging.Default().Info("Trials found",
				"query", result.Query,
				"source", result.Source,
				"items", len(result.Items),
			)
			return nil
		},
	}
}
