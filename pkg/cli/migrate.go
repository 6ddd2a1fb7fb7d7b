package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/cli/config"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the guideline store schema",
		Flags:   repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			repo, err := repoCfg.Open(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer closeRepository(repo)()

			logger.Info("Applying migrations", "repository", repoCfg)
			if err := repo.Migrate(ctx); err != nil {
				return goerr.Wrap(err, "failed to apply migrations")
			}

			counts, err := repo.Counts(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to count store records")
			}
			logger.Info("Migrations applied successfully",
				"guidelines", counts.Guidelines,
				"chunks", counts.Chunks,
			)
			return nil
		},
	}
}
