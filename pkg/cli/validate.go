package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var casePath string
	var outputPath string
	var review bool
	var patient bool
	var eng engine

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "case",
			Aliases:     []string{"c"},
			Usage:       "Case input JSON file (- for stdin)",
			Required:    true,
			Destination: &casePath,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the result to a file instead of stdout",
			Destination: &outputPath,
		},
		&cli.BoolFlag{
			Name:        "review",
			Usage:       "Attach an LLM doctor review to the result",
			Destination: &review,
		},
		&cli.BoolFlag{
			Name:        "patient",
			Usage:       "Output a patient facing explanation with the result",
			Destination: &patient,
		},
	}
	flags = append(flags, eng.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a treatment plan against the applicable guidelines",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if review && patient {
				return goerr.New("--review and --patient are mutually exclusive")
			}

			var in model.CaseInput
			if err := readJSON(ctx, casePath, &in); err != nil {
				return err
			}

			uc, closer, err := eng.build(ctx)
			if err != nil {
				return err
			}
			defer closer()

			var out any
			switch {
			case patient:
				outcome, err := uc.Explain.ExplainForPatient(ctx, &in)
				if err != nil {
					return goerr.Wrap(err, "failed to explain case")
				}
				out = outcome

			case review:
				outcome, err := uc.Explain.ReviewCase(ctx, &in)
				if err != nil {
					return goerr.Wrap(err, "failed to review case")
				}
				resp := reviewOutput{ValidationResult: outcome.Validation, LLMReview: outcome.Review}
				if outcome.ReviewError != nil {
					resp.LLMReviewError = outcome.ReviewError.Error()
				}
				out = resp

			default:
				result, err := uc.Validation.ValidateCase(ctx, &in)
				if err != nil {
					return goerr.Wrap(err, "failed to validate case")
				}
				out = result
			}

			if err := writeJSON(ctx, os.Stdout, outputPath, out); err != nil {
				return err
			}
			logging.Default().Debug("validation written", "output", outputPath)
			return nil
		},
	}
}

type reviewOutput struct {
	*model.ValidationResult
	LLMReview      *model.DoctorReview `json:"llm_review,omitempty"`
	LLMReviewError string              `json:"llm_review_error,omitempty"`
}
