package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/offset-permanence/curate-cli/internal/export"
	"github.com/offset-permanence/curate-cli/internal/summary"
)

var (
	summarizeField     string
	summarizeBy        string
	summarizeUnmatched bool
	summarizeJSON      bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Count distinct records per value of an exported long-table column",
	RunE: func(cmd *cobra.Command, _ []string) error {
		spec, err := selectField(summarizeField)
		if err != nil {
			return err
		}

		table, err := export.ReadLongTable(cmd.Context(), export.LongPath(cfg.Output.Dir, spec.Name), spec.Name, spec.LongSchema())
		if err != nil {
			return err
		}

		by := summarizeBy
		if by == "" {
			by = spec.LongSchema().StandardColumns[0]
		}
		counts, err := summary.CountColumn(table, by, summary.Options{IncludeUnmatched: summarizeUnmatched})
		if err != nil {
			return err
		}

		if summarizeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(counts)
		}
		formatCounts(os.Stdout, by, counts)
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeField, "field", "", "field to summarize")
	summarizeCmd.Flags().StringVar(&summarizeBy, "by", "", "long-table column to count by (default: first standardized column)")
	summarizeCmd.Flags().BoolVar(&summarizeUnmatched, "include-unmatched", false, "count unmatched rows too")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(summarizeCmd)
}

// formatCounts writes a count table to w.
func formatCounts(out io.Writer, column string, counts []summary.Count) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\tRECORDS\tSHARE\n", column)
	for _, c := range counts {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", c.Value, c.Records, c.Share*100)
	}
	_ = w.Flush()
}

