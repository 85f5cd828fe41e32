package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/diagnose"
	"github.com/offset-permanence/curate-cli/internal/pipeline"
)

var (
	diagnoseField string
	diagnoseLimit int
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Print the unmatched-value frequency table of one field",
	Long:  "Standardizes one field in memory and prints its unmatched values by frequency. Nothing is exported or recorded.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("standardize"); err != nil {
			return err
		}
		spec, err := selectField(diagnoseField)
		if err != nil {
			return err
		}

		records, err := pipeline.LoadRecords(ctx, cfg.Source)
		if err != nil {
			return err
		}
		res := pipeline.Standardize(ctx, cfg.Reference, spec, records)
		if res.Err != nil {
			return res.Err
		}

		res.Report.Log(zap.L())
		formatReport(os.Stdout, res.Report, diagnoseLimit)
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseField, "field", "", "field to diagnose")
	diagnoseCmd.Flags().IntVar(&diagnoseLimit, "limit", 25, "max number of values to print (0 = all)")
	rootCmd.AddCommand(diagnoseCmd)
}

// formatReport writes the frequency and incomplete-entry tables of r to w.
func formatReport(out io.Writer, r diagnose.Report, limit int) {
	_, _ = fmt.Fprintf(out, "%s: %d entries, %d matched, %d unmatched\n\n", r.Field, r.Entries, r.Matched, r.UnmatchedCount())

	freqs := r.Frequencies
	if limit > 0 && len(freqs) > limit {
		freqs = freqs[:limit]
	}
	if len(freqs) > 0 {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "MENTIONS\tRECORDS\tISSUE\tRAW VALUE")
		for _, f := range freqs {
			_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", f.Mentions, f.Records, f.Issue, f.RawValue)
		}
		_ = w.Flush()
		if len(freqs) < len(r.Frequencies) {
			_, _ = fmt.Fprintf(out, "... %d more\n", len(r.Frequencies)-len(freqs))
		}
	}

	if len(r.Incomplete) > 0 {
		_, _ = fmt.Fprintf(out, "\n%d reference entries are missing required attributes:\n", len(r.Incomplete))
		for _, e := range r.Incomplete {
			_, _ = fmt.Fprintf(out, "  %s %v\n", e.Key, e.Missing)
		}
	}
}
