package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/techchallenge/vitibrasil-etl/config"
	"github.com/techchallenge/vitibrasil-etl/load"
	"github.com/techchallenge/vitibrasil-etl/pipeline"
)

var b3Cmd = &cobra.Command{
	Use:   "b3",
	Short: "B3 theoretical portfolio ingestion",
}

// uploaderFor returns nil when uploads are disabled.
func uploaderFor(upload bool, cfg *config.Config, log *slog.Logger) (load.Uploader, error) {
	if !upload {
		return nil, nil
	}
	store, err := load.NewObjectStore(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting to object store: %w", err)
	}
	return store, nil
}

func newIngestCmd() *cobra.Command {
	var upload bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Downloads the portfolio of the day and writes it as parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			uploader, err := uploaderFor(upload, cfg, log)
			if err != nil {
				return err
			}

			db, err := load.NewDuckDB(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			path, err := pipeline.NewPipeline(cfg, log, nil).IngestPortfolio(cmd.Context(), db, uploader)
			if err != nil {
				log.Error(fmt.Sprintf("Error ingesting portfolio: %v", err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the parquet file to the raw bucket")
	return cmd
}

func newRefineCmd() *cobra.Command {
	var upload bool
	cmd := &cobra.Command{
		Use:   "refine <raw.parquet>",
		Short: "Aggregates a raw portfolio parquet file and checks its quality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			uploader, err := uploaderFor(upload, cfg, log)
			if err != nil {
				return err
			}

			db, err := load.NewDuckDB(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			path, err := pipeline.NewPipeline(cfg, log, nil).RefinePortfolio(cmd.Context(), db, uploader, args[0])
			if err != nil {
				log.Error(fmt.Sprintf("Error refining portfolio: %v", err))
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&upload, "upload", false, "upload the refined file to the refined bucket")
	return cmd
}
