package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tidyframe/tidyframe/internal/export"
	"github.com/tidyframe/tidyframe/internal/model"
)

var summaryInput string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the quality of a JSON results file",
	Long:  "Reads a results file written by `parse --output results.json` and prints fallback usage, confidence and warning rates with a quality score and recommendations.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(summaryInput)
		if err != nil {
			return eris.Wrap(err, "summary: open input")
		}
		defer f.Close() //nolint:errcheck

		return runSummary(f, cmd.OutOrStdout())
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryInput, "input", "", "JSON results file")
	_ = summaryCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(in io.Reader, out io.Writer) error {
	doc, err := export.ReadJSON(in)
	if err != nil {
		return eris.Wrap(err, "summary: read results")
	}

	var stats model.BatchStatistics
	if doc.Statistics != nil {
		stats = *doc.Statistics
	}
	printSummary(out, initTracker().Summarize(doc.Results), stats)
	return nil
}
