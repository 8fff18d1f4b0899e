package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frumelad/bom-explode/internal/archive"
	"github.com/frumelad/bom-explode/internal/config"
	"github.com/frumelad/bom-explode/internal/logging"
	"github.com/frumelad/bom-explode/internal/service"
	"github.com/frumelad/bom-explode/internal/store"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bom",
	Short: "Explode bills of materials for finished products",
	Long: `bom loads the nomenclature catalog and specifications, recursively
expands every finished product down to terminal raw materials and stores
the per-unit requirements together with the anomalies found on the way.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd, reportCmd, serveCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, cfg.DatabaseURL, store.Options{
		ActiveStatus: cfg.SpecActiveStatus,
		AutoSelect:   cfg.SpecAutoSelect,
		MaxConns:     int32(cfg.Workers + 2),
	})
}

func newRunner(st *store.Store, workers int, withArchive bool) (*service.Runner, error) {
	r := service.NewRunner(st, st, service.RunnerConfig{
		Workers:             workers,
		ReportMultipleSpecs: cfg.ReportMultipleSpecs,
	}, logger)
	if !withArchive {
		return r, nil
	}
	if !cfg.Archive.Enabled() {
		return nil, fmt.Errorf("archive requested but BOM_ARCHIVE_ENDPOINT is not set")
	}
	a, err := archive.NewS3Store(archive.S3Config{
		Endpoint:  cfg.Archive.Endpoint,
		Region:    cfg.Archive.Region,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return r.WithArchiver(a), nil
}
