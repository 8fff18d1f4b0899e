package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runWorkers int
	runArchive bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Explode every finished product and store the results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RunTimeout)
		defer cancel()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		workers := cfg.Workers
		if cmd.Flags().Changed("workers") {
			workers = runWorkers
		}
		r, err := newRunner(st, workers, runArchive)
		if err != nil {
			return err
		}
		sum, err := r.Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Products processed: %d\n", sum.Products)
		fmt.Fprintf(out, "Materials total:    %d\n", sum.Materials)
		fmt.Fprintf(out, "Errors total:       %d\n", sum.Errors)
		fmt.Fprintf(out, "Products failed:    %d\n", sum.Failed)
		fmt.Fprintf(out, "Took:               %s\n", sum.Duration)
		if sum.ArchivedAt != "" {
			fmt.Fprintf(out, "Archived to:        %s\n", sum.ArchivedAt)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 4, "parallel product explosions (default BOM_WORKERS)")
	runCmd.Flags().BoolVar(&runArchive, "archive", false, "upload the full report to the S3 archive")
}
