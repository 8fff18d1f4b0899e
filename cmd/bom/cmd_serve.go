package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/frumelad/bom-explode/internal/handler"
	"github.com/frumelad/bom-explode/internal/service"
	"github.com/frumelad/bom-explode/pkg/auth"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reports and run triggers over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runner, err := newRunner(st, cfg.Workers, cfg.Archive.Enabled())
		if err != nil {
			return err
		}
		reports, err := service.NewReports(st, cfg.ReportCacheSize)
		if err != nil {
			return err
		}
		if cfg.AuthSecret == "" {
			logger.Warn("AUTH_SECRET is empty, authenticated routes will reject every request")
		}
		authProvider := auth.NewJWT(cfg.AuthSecret, cfg.AuthIssuer, cfg.AuthAudience)

		addr := serveAddr
		if addr == "" {
			addr = ":" + cfg.Port
		}
		srv := &http.Server{
			Addr:         addr,
			Handler:      handler.NewRouter(authProvider, reports, runner, logger),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: cfg.RunTimeout + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", zap.String("addr", addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :$PORT)")
}
