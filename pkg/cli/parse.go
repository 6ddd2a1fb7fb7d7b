package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdParse() *cli.Command {
	var filePath string
	var source string
	var outputPath string

	return &cli.Command{
		Name:  "parse",
		Usage: "Suggest a case input from a free text medical record",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "Text file with the medical record (- for stdin)",
				Required:    true,
				Destination: &filePath,
			},
			&cli.StringFlag{
				Name:        "source",
				Usage:       "Source label stored with the result (defaults to the file name)",
				Destination: &source,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Write the result to a file instead of stdout",
				Destination: &outputPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			text, err := readText(ctx, filePath)
			if err != nil {
				return err
			}
			if source == "" && filePath != "-" {
				source = filepath.Base(filePath)
			}

			result, err := usecase.NewCaseUseCase(time.Now).ParseText(ctx, text, source)
			if err != nil {
				return goerr.Wrap(err, "failed to parse case text", goerr.V("file", filePath))
			}

			if err := writeJSON(ctx, os.Stdout, outputPath, result); err != nil {
				return err
			}
			logging.Default().Debug("case suggestion written", "output", outputPath, "warnings", len(result.Warnings))
			return nil
		},
	}
}
