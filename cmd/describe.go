package cmd

import (
	"github.com/spf13/cobra"

	"github.com/techchallenge/vitibrasil-etl/dataset"
	"github.com/techchallenge/vitibrasil-etl/pipeline"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <dataset>",
		Short: "Prints the JSON structure and numeric statistics of a sanitized dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := dataset.ParseKind(args[0])
			if err != nil {
				return err
			}
			cfg, log, err := initializeConfigAndLogger()
			if err != nil {
				return err
			}
			return pipeline.NewPipeline(cfg, log, nil).Describe(kind, cmd.OutOrStdout())
		},
	}
}
