package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/review"
	"github.com/offset-permanence/curate-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect standardization run history",
	Long:  "Commands for listing runs, viewing per-field outcomes, and reading stored unmatched values.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List standardization runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its per-field outcomes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		fields, err := st.ListFieldRuns(ctx, run.ID)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(review.RunDetail{Run: *run, FieldRuns: fields})
		}
		formatFieldRuns(os.Stdout, run, fields)
		return nil
	},
}

// -- runs unmatched --

var runsUnmatchedCmd = &cobra.Command{
	Use:   "unmatched <run-id>",
	Short: "List the stored unmatched values of one field of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		field, _ := cmd.Flags().GetString("field")
		if field == "" {
			return eris.New("--field is required")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		values, err := st.ListUnmatched(ctx, args[0], field, limit)
		if err != nil {
			return eris.Wrap(err, "runs unmatched")
		}
		if len(values) == 0 {
			fmt.Fprintln(os.Stderr, "No unmatched values.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "MENTIONS\tRECORDS\tISSUE\tRAW VALUE")
		for _, v := range values {
			_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", v.Mentions, v.Records, v.Issue, v.RawValue)
		}
		return w.Flush()
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, partial, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsShowCmd.Flags().Bool("json", false, "print JSON")

	runsUnmatchedCmd.Flags().String("field", "", "field name")
	runsUnmatchedCmd.Flags().Int("limit", 100, "max number of values to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsUnmatchedCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tFIELDS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Millisecond).String()

		source := r.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			truncateID(r.ID),
			source,
			r.Status,
			len(r.Fields),
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatFieldRuns writes a run header and its per-field table to w.
func formatFieldRuns(out io.Writer, run *model.Run, fields []model.FieldRun) {
	_, _ = fmt.Fprintf(out, "Run %s (%s) from %s\n", run.ID, run.Status, run.Source)
	if run.Error != "" {
		_, _ = fmt.Fprintf(out, "Error: %s\n", run.Error)
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "FIELD\tSTATUS\tENTRIES\tMATCHED\tUNMATCHED\tINCOMPLETE\tDURATION")
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%dms\n",
			f.Field, f.Status, f.Entries, f.Matched, f.Unmatched, f.Incomplete, f.DurationMs)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
