package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/pipeline"
	"github.com/offset-permanence/curate-cli/internal/store"
)

var (
	standardizeFields   []string
	standardizeNoRecord bool
)

var standardizeCmd = &cobra.Command{
	Use:   "standardize",
	Short: "Standardize fields and export long tables and diagnostics",
	Long: "Runs the selected field pipelines over the source table, writes one long table and " +
		"one set of diagnostics per field to output.dir, and records the run in the run store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("standardize"); err != nil {
			return err
		}

		specs, err := selectFields(standardizeFields)
		if err != nil {
			return err
		}

		var st store.Store
		if !standardizeNoRecord {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		out, err := pipeline.New(cfg, st, specs).Run(ctx)
		if err != nil {
			return err
		}

		formatRunResult(os.Stdout, out)
		if out.Status == model.RunStatusFailed {
			return eris.New("standardize: every field failed")
		}
		return nil
	},
}

func init() {
	standardizeCmd.Flags().StringSliceVar(&standardizeFields, "field", nil, "field(s) to standardize (default: pipeline.fields or all)")
	standardizeCmd.Flags().BoolVar(&standardizeNoRecord, "no-record", false, "do not record the run in the run store")
	rootCmd.AddCommand(standardizeCmd)
}

// formatRunResult writes a per-field summary of a run to w.
func formatRunResult(out io.Writer, r *pipeline.RunResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tENTRIES\tMATCHED\tUNMATCHED\tINCOMPLETE\tNOTES\tSTATUS")
	_, _ = fmt.Fprintln(w, "-----\t-------\t-------\t---------\t----------\t-----\t------")
	for _, res := range r.Results {
		if res.Err != nil {
			_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\tfailed: %v\n", res.Field, res.Err)
			continue
		}
		rep := res.Report
		status := "ok"
		if !rep.Clean() {
			status = "review"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			res.Field, rep.Entries, rep.Matched, rep.UnmatchedCount(), len(rep.Incomplete), len(rep.Notes), status)
	}
	_ = w.Flush()

	if r.RunID != "" {
		_, _ = fmt.Fprintf(out, "\nrun %s: %s (%d records)\n", r.RunID, r.Status, r.Records)
	} else {
		_, _ = fmt.Fprintf(out, "\nrun: %s (%d records)\n", r.Status, r.Records)
	}

	keys := make([]string, 0, len(r.Files))
	for k := range r.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(out, "  %s: %s\n", k, r.Files[k])
	}
}
