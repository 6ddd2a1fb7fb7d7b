package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdImport() *cli.Command {
	var filePath string
	var eng engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "JSON array of guideline documents (- for stdin)",
			Required:    true,
			Destination: &filePath,
		},
	}
	flags = append(flags, eng.Flags()...)

	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import guideline documents into the store",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var docs []*model.GuidelineDocument
			if err := readJSON(ctx, filePath, &docs); err != nil {
				return err
			}

			uc, closer, err := eng.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			imported, err := uc.Guideline.ImportGuidelines(ctx, docs)
			if err != nil {
				return goerr.Wrap(err, "failed to import guidelines", goerr.V("file", filePath))
			}

			health, err := uc.Health(ctx)
			if err != nil {
				return err
			}
			logging.Default().Info("Guidelines imported",
				"imported_guidelines", imported.Guidelines,
				"imported_chunks", imported.Chunks,
				"total_guidelines", health.Guidelines,
				"total_chunks", health.Chunks,
			)
			return nil
		},
	}
}
