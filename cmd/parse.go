package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tidyframe/tidyframe/internal/export"
	"github.com/tidyframe/tidyframe/internal/fetcher"
	"github.com/tidyframe/tidyframe/internal/model"
	"github.com/tidyframe/tidyframe/internal/pipeline"
	"github.com/tidyframe/tidyframe/internal/tracker"
)

type parseOptions struct {
	Input   string
	Column  string
	Sheet   string
	Output  string
	MaxRows int
	NoCache bool
	Names   []string
}

var parseOpts parseOptions

var parseCmd = &cobra.Command{
	Use:   "parse [names...]",
	Short: "Parse owner names from a spreadsheet or the command line",
	Long: `Parses each owner string into first name, last name, entity type and
gender, with a confidence score and review warnings.

Examples:
  # Parse a county export and write a spreadsheet
  tidyframe parse --input owners.xlsx --column "Owner Name" --output parsed.xlsx

  # Parse names given as arguments, printing JSON
  tidyframe parse "Uhl Judy" "Mills Edwin L & Gloria F Rev Trust"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := parseOpts
		opts.Names = args
		return runParse(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	f := parseCmd.Flags()
	f.StringVar(&parseOpts.Input, "input", "", "CSV, TSV or XLSX file to read")
	f.StringVar(&parseOpts.Column, "column", "", "header of the name column (default: first of "+fmt.Sprint(fetcher.DefaultColumns)+")")
	f.StringVar(&parseOpts.Sheet, "sheet", "", "worksheet name for XLSX input (default: first sheet)")
	f.StringVar(&parseOpts.Output, "output", "", "write results to a .csv, .xlsx or .json file (default: JSON on stdout)")
	f.IntVar(&parseOpts.MaxRows, "max-rows", 0, "reject inputs with more data rows (0 = unlimited)")
	f.BoolVar(&parseOpts.NoCache, "no-cache", false, "skip the name cache")
	rootCmd.AddCommand(parseCmd)
}

func runParse(ctx context.Context, opts parseOptions, out io.Writer) error {
	inputs, err := parseInputs(ctx, opts)
	if err != nil {
		return err
	}

	env, err := initEnv(ctx, !opts.NoCache)
	if err != nil {
		return eris.Wrap(err, "parse: init")
	}
	defer env.Close()

	results, stats, err := env.Pipeline.Run(ctx, inputs)
	if err != nil {
		return eris.Wrap(err, "parse: run")
	}

	if opts.Output == "" {
		return export.WriteJSON(out, results, &stats)
	}
	if err := export.WriteFile(opts.Output, results, &stats); err != nil {
		return eris.Wrap(err, "parse: write output")
	}
	zap.L().Info("results written", zap.String("path", opts.Output), zap.Int("rows", len(results)))

	printSummary(out, env.Tracker.Summarize(results), stats)
	return nil
}

func parseInputs(ctx context.Context, opts parseOptions) ([]model.RawNameInput, error) {
	switch {
	case opts.Input != "" && len(opts.Names) > 0:
		return nil, eris.New("parse: use either --input or name arguments, not both")
	case opts.Input != "":
		names, err := fetcher.ReadNames(ctx, opts.Input, fetcher.Options{
			Column:  opts.Column,
			Sheet:   fetcher.XLSXOptions{SheetName: opts.Sheet},
			MaxRows: opts.MaxRows,
		})
		if err != nil {
			return nil, eris.Wrap(err, "parse: read input")
		}
		zap.L().Info("read input",
			zap.String("path", opts.Input),
			zap.String("column", names.Column),
			zap.Int("rows", len(names.Rows)),
		)
		return names.Rows, nil
	case len(opts.Names) > 0:
		return pipeline.Inputs(opts.Names), nil
	default:
		return nil, eris.New("parse: --input or at least one name is required")
	}
}

// printSummary writes the quality summary and batch counters.
func printSummary(out io.Writer, s tracker.Summary, stats model.BatchStatistics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Primary parser\t%d (%.1f%%)\n", s.GeminiCount, s.GeminiRate*100)
	_, _ = fmt.Fprintf(w, "Fallback parser\t%d (%.1f%%)\n", s.FallbackCount, s.FallbackRate*100)
	_, _ = fmt.Fprintf(w, "Errors\t%d\n", s.ErrorCount)
	_, _ = fmt.Fprintf(w, "Low confidence\t%d (%.1f%%)\n", s.LowConfidence, s.LowConfidenceRate*100)
	_, _ = fmt.Fprintf(w, "With warnings\t%d\n", s.WithWarnings)
	if stats.CacheHits > 0 {
		_, _ = fmt.Fprintf(w, "Cache hits\t%d\n", stats.CacheHits)
	}
	_, _ = fmt.Fprintf(w, "Quality score\t%.2f\n", s.QualityScore)
	_ = w.Flush()

	if len(s.Recommendations) > 0 {
		_, _ = fmt.Fprintln(out, "\nRecommendations:")
		for _, r := range s.Recommendations {
			_, _ = fmt.Fprintf(out, "  - %s\n", r)
		}
	}
}
