package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/offset-permanence/curate-cli/internal/combine"
	"github.com/offset-permanence/curate-cli/internal/export"
	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/pipeline"
)

var combineFields []string

var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "Join exported long tables into the master long table",
	Long:  "Full outer join of every exported <field>_long.csv on (record_id, title), with the source's scalar columns, written to master_long.csv.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("standardize"); err != nil {
			return err
		}
		specs, err := selectFields(combineFields)
		if err != nil {
			return err
		}

		m, err := buildMaster(cmd.Context(), specs)
		if err != nil {
			return err
		}

		path := filepath.Join(cfg.Output.Dir, export.MasterName)
		if err := combine.Write(path, m); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stdout, "%d rows, %d columns -> %s\n", len(m.Rows), len(m.Header), path)
		return nil
	},
}

func init() {
	combineCmd.Flags().StringSliceVar(&combineFields, "field", nil, "field(s) to include (default: pipeline.fields or all)")
	rootCmd.AddCommand(combineCmd)
}

// buildMaster loads the source records and exported long tables and joins them.
func buildMaster(ctx context.Context, specs []model.FieldSpec) (*combine.Master, error) {
	records, err := pipeline.LoadRecords(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	tables, err := combine.ReadTables(ctx, cfg.Output.Dir, specs)
	if err != nil {
		return nil, err
	}
	return combine.Combine(records, cfg.Source.ScalarColumns, tables)
}
