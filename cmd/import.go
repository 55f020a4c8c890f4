package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/load"
	"github.com/techchallenge/vitibrasil-etl/pipeline"
)

func newImportCmd() *cobra.Command {
	var driver, dsn string
	cmd := &cobra.Command{
		Use:   "import [dataset...]",
		Short: "Imports sanitized JSON artifacts into the relational store",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := dataset.ParseKinds(args)
			if err != nil {
				return err
			}

			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			if driver != "" {
				cfg.Store.Driver = driver
			}
			if dsn != "" {
				cfg.Store.DSN = dsn
			}

			store, err := load.OpenStore(cfg, log)
			if err != nil {
				log.Error(fmt.Sprintf("Error opening store: %v", err))
				return err
			}
			defer store.Close()

			p := pipeline.NewPipeline(cfg, log, nil)
			results, err := p.Import(cmd.Context(), store, kinds)
			renderImportSummary(cmd.OutOrStdout(), results)
			if err != nil {
				log.Error(fmt.Sprintf("Error importing datasets: %v", err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "store driver: duckdb, sqlite or postgres")
	cmd.Flags().StringVar(&dsn, "dsn", "", "store data source name")
	return cmd
}
