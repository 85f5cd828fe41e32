package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/offset-permanence/curate-cli/internal/combine"
	"github.com/offset-permanence/curate-cli/internal/publish"
	"github.com/offset-permanence/curate-cli/internal/resilience"
)

var (
	publishFields []string
	publishMaster bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Load exported long tables into PostgreSQL",
	Long:  "Replaces <publish.schema>.<field>_long for every exported field, and master_long unless --master=false. Each table is dropped and recreated in one transaction.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("publish"); err != nil {
			return err
		}
		specs, err := selectFields(publishFields)
		if err != nil {
			return err
		}

		tables, err := combine.ReadTables(ctx, cfg.Output.Dir, specs)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return eris.Errorf("publish: no long tables found in %s; run standardize first", cfg.Output.Dir)
		}

		var master *combine.Master
		if publishMaster {
			master, err = buildMaster(ctx, specs)
			if err != nil {
				return err
			}
		}

		retry := resilience.FromAttempts(cfg.Publish.RetryAttempts, cfg.Publish.RetryBackoffMs)
		pool, err := connectPool(ctx, cfg.Publish.DatabaseURL, retry)
		if err != nil {
			return err
		}
		defer pool.Close()

		counts, err := publish.New(pool, cfg.Publish.Schema).WithRetry(retry).All(ctx, tables, master)
		if len(counts) > 0 {
			_, _ = fmt.Fprintln(os.Stdout, strings.Join(publish.Summary(counts), "\n"))
		}
		return err
	},
}

// connectPool opens a pool and pings it, retrying while the server is
// unreachable.
func connectPool(ctx context.Context, url string, retry resilience.RetryConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "publish: parse database url")
	}
	retry.OnRetry = resilience.LogRetry("publish connect")
	if err := resilience.Do(ctx, retry, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "publish: connect")
	}
	return pool, nil
}

func init() {
	publishCmd.Flags().StringSliceVar(&publishFields, "field", nil, "field(s) to publish (default: pipeline.fields or all)")
	publishCmd.Flags().BoolVar(&publishMaster, "master", true, "also publish the combined master table")
	rootCmd.AddCommand(publishCmd)
}
