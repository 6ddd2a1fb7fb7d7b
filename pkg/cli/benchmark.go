package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/cli/config"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/usecase"
	"github.com/oncoguard/oncoguard/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdBenchmark() *cli.Command {
	var datasetVersion string
	var outputPath string
	var eng engine
	var datasetCfg config.Dataset

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dataset-version",
			Usage:       "Label recorded with the benchmark report",
			Value:       usecase.DefaultDatasetVersion,
			Sources:     cli.EnvVars("ONCOGUARD_DATASET_VERSION"),
			Destination: &datasetVersion,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the JSON report to a file",
			Destination: &outputPath,
		},
	}
	flags = append(flags, eng.Flags()...)
	flags = append(flags, datasetCfg.Flags()...)

	return &cli.Command{
		Name:    "benchmark",
		Aliases: []string{"b"},
		Usage:   "Run the labeled benchmark scenarios and record a report",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			loader, err := datasetCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, loader)

			uc, closer, err := eng.build(ctx, usecase.WithScenarioLoader(loader))
			if err != nil {
				return err
			}
			defer closer()

			report, err := uc.Benchmark.RunBenchmark(ctx, datasetVersion)
			if err != nil {
				return goerr.Wrap(err, "failed to run benchmark")
			}

			if outputPath != "" {
				if err := writeJSON(ctx, os.Stdout, outputPath, report); err != nil {
					return err
				}
			}
			printBenchmarkSummary(os.Stdout, report)
			return nil
		},
	}
}

func printBenchmarkSummary(w io.Writer, report *model.BenchmarkReport) {
	title := color.New(color.Bold)
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	_, _ = title.Fprintf(w, "Benchmark %s: %d scenarios\n", report.DatasetVersion, report.ScenariosTotal)
	for _, s := range report.Scenarios {
		mark := pass("PASS")
		if s.ActualStatus != s.ExpectedStatus {
			mark = fail("FAIL")
		}
		_, _ = fmt.Fprintf(w, "  %s %-24s expected=%-16s actual=%-16s evidence=%d %dms\n",
			mark, s.ID, s.ExpectedStatus, s.ActualStatus, s.EvidenceCount, s.LatencyMS)
	}

	m := report.Metrics
	_, _ = title.Fprintln(w, "Metrics")
	_, _ = fmt.Fprintf(w, "  protocol_match_accuracy       %.4f\n", m.ProtocolMatchAccuracy)
	_, _ = fmt.Fprintf(w, "  mismatch_detection_precision  %.4f\n", m.MismatchDetectionPrecision)
	_, _ = fmt.Fprintf(w, "  mismatch_detection_recall     %.4f\n", m.MismatchDetectionRecall)
	_, _ = fmt.Fprintf(w, "  median_validation_time        %.1fms\n", m.MedianValidationTime)
	_, _ = fmt.Fprintf(w, "  case_coverage                 %.4f\n", m.CaseCoverage)
	_, _ = fmt.Fprintf(w, "  source_traceability_rate      %.4f\n", m.SourceTraceabilityRate)
}
