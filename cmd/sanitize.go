package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/pipeline"
)

func newSanitizeCmd() *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "sanitize [dataset...]",
		Short: "Downloads and sanitizes the given datasets (all when none is named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := dataset.ParseKinds(args)
			if err != nil {
				return err
			}

			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Pipeline.MaxParallel = parallel
			}

			p := pipeline.NewPipeline(cfg, log, nil)
			results, err := p.RunAll(cmd.Context(), kinds)
			renderSanitizeSummary(cmd.OutOrStdout(), results)
			if err != nil {
				log.Error(fmt.Sprintf("Error running pipeline: %v", err))
				return err
			}
			log.Info("Batch job completed without errors")
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of datasets processed at once")
	return cmd
}
