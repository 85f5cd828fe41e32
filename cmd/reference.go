package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/offset-permanence/curate-cli/internal/alias"
	"github.com/offset-permanence/curate-cli/internal/model"
	"github.com/offset-permanence/curate-cli/internal/pipeline"
	"github.com/offset-permanence/curate-cli/internal/reference"
)

var (
	referenceFields []string
	referenceOutDir string
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Maintain reference tables",
}

var referenceBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Merge authoritative and curated reference entries and write the merged tables",
	Long: "Builds each selected field's reference table the way standardize does " +
		"(authoritative rows first, curated entries override on key collision) " +
		"and writes it to <out>/<field>_reference.csv. Each non-empty alias map " +
		"is written with its chains collapsed to <out>/<column>_alias.csv.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		specs, err := selectFields(referenceFields)
		if err != nil {
			return err
		}
		outDir := referenceOutDir
		if outDir == "" {
			outDir = cfg.Output.Dir
		}

		for _, spec := range specs {
			path := filepath.Join(outDir, spec.Name+"_reference.csv")

			var (
				notes   []model.Note
				entries int
			)
			if spec.Kind == model.MatchGeography {
				table, n, err := reference.BuildGeo(ctx, pipeline.GeoSources(cfg.Reference))
				if err != nil {
					return err
				}
				if err := reference.WriteGeo(path, table.Entries); err != nil {
					return err
				}
				notes, entries = n, len(table.Entries)
			} else {
				table, n, err := reference.BuildStrict(ctx, spec.Name, spec.Schema, pipeline.StrictSources(cfg.Reference, spec.Name))
				if err != nil {
					return err
				}
				if err := reference.WriteStrict(path, table); err != nil {
					return err
				}
				notes, entries = n, table.Len()
			}

			resolver, aliasNotes, err := pipeline.LoadAliases(ctx, cfg.Reference.AliasDir, spec)
			if err != nil {
				return err
			}
			notes = append(notes, aliasNotes...)
			for _, col := range spec.AliasColumns {
				m := resolver.Map(col)
				if len(m) == 0 {
					continue
				}
				aliasPath := filepath.Join(outDir, col+"_alias.csv")
				if err := alias.Write(aliasPath, m); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "%s: %d aliases -> %s\n", col, len(m), aliasPath)
			}

			for _, n := range notes {
				zap.L().Warn("reference: merge note",
					zap.String("field", spec.Name),
					zap.String("kind", string(n.Kind)),
					zap.String("detail", n.Detail),
				)
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s: %d entries, %d notes -> %s\n", spec.Name, entries, len(notes), path)
		}
		return nil
	},
}

func init() {
	referenceBuildCmd.Flags().StringSliceVar(&referenceFields, "field", nil, "field(s) to build (default: pipeline.fields or all)")
	referenceBuildCmd.Flags().StringVar(&referenceOutDir, "out", "", "output directory (default: output.dir)")
	referenceCmd.AddCommand(referenceBuildCmd)
	rootCmd.AddCommand(referenceCmd)
}
