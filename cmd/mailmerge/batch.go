package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/go-mailmerge/internal/job"
)

func newBatchCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch <job.yaml>",
		Short: "Write one merged document per record of a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := job.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				j.Workers = workers
			}

			results, err := job.NewRunner(a.config, a.logger).Run(cmd.Context(), j)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", r.Path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d documents written\n", len(results))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent merges (default from the job file, then GOMAXPROCS)")
	return cmd
}
