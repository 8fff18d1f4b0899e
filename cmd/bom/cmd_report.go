package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frumelad/bom-explode/internal/service"
	"github.com/frumelad/bom-explode/internal/store"
)

var (
	reportAll bool
	reportOut string
)

var reportCmd = &cobra.Command{
	Use:   "report [product-key]",
	Short: "Render stored results for one product or for all of them",
	Args: func(cmd *cobra.Command, args []string) error {
		if reportAll && len(args) > 0 {
			return errors.New("--all takes no product key")
		}
		if !reportAll && len(args) != 1 {
			return errors.New("expected a product key or --all")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reports, err := service.NewReports(st, 1)
		if err != nil {
			return err
		}

		var body string
		if reportAll {
			body, err = reports.FullReport(ctx, time.Now())
		} else {
			body, err = reports.ProductReport(ctx, args[0])
			if errors.Is(err, store.ErrNoData) {
				return fmt.Errorf("no data for product %s, run `bom run` first", args[0])
			}
		}
		if err != nil {
			return err
		}

		if reportOut == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), body)
			return err
		}
		if err := os.WriteFile(reportOut, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written", zap.String("path", reportOut))
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportAll, "all", false, "render the full report for every product")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "write the report to a file instead of stdout")
}
