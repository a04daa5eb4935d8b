package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/api"
	"github.com/marmos91/clouddrive/pkg/config"
	"github.com/marmos91/clouddrive/pkg/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the reconciler worker and the metrics endpoint",
		Long: `Run every enabled component until SIGINT or SIGTERM.

The API is enabled with api.enabled, the periodic reconciler with
reconcile.enabled and the Prometheus endpoint with metrics.enabled.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	logger.Info("clouddrive %s starting", Version)

	m := config.InitializeMetrics(cfg)

	c, err := config.InitializeComponents(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close record store: %v", err)
		}
	}()

	srv := server.New(cfg.Server.ShutdownTimeout)

	if cfg.API.Enabled {
		router := api.NewRouter(c.Drive, c.Objects, api.Config{
			AuthToken:      cfg.API.AuthToken,
			MaxUploadBytes: cfg.API.MaxUploadBytes,
			CORSOrigins:    cfg.API.CORSOrigins,
			Checks: map[string]api.Healthchecker{
				"records": c.Items,
				"objects": c.Objects,
			},
			Metrics: m.HTTP,
		})
		if err := srv.Add(server.NewHTTPComponent(cfg.API.Addr(), router)); err != nil {
			return err
		}
		if cfg.API.AuthToken == "" {
			logger.Warn("API authentication disabled (api.auth_token is empty)")
		}
	}

	if m.Server != nil {
		if err := srv.Add(server.NewMetricsComponent(m.Server)); err != nil {
			return err
		}
	}

	if cfg.Reconcile.Enabled {
		if err := srv.Add(server.NewReconcilerComponent(c.Reconciler)); err != nil {
			return err
		}
	}

	if len(srv.Components()) == 0 {
		return fmt.Errorf("nothing to serve: enable api, metrics or reconcile")
	}

	return srv.Serve(ctx)
}
