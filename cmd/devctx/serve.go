package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/access"
	"github.com/HendryAvila/devctx/internal/server"
	"github.com/HendryAvila/devctx/internal/version"
)

func (c *cli) serveCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio, or HTTP with --http)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := c.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app, err := server.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			go checkForUpdates(ctx, log)

			addr := httpAddr
			if addr == "" {
				addr = cfg.HTTPAddr
			}
			if addr == "" {
				return app.ServeStdio()
			}

			keys, err := access.Open(cfg.AccessDB, log)
			if err != nil {
				return err
			}
			defer func() { _ = keys.Close() }()

			return app.ServeHTTP(ctx, addr, keys)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio, e.g. :8080")
	return cmd
}

// checkForUpdates logs a notice when a newer release exists. Network
// failures are only logged at debug level.
func checkForUpdates(ctx context.Context, log *zap.Logger) {
	res, err := version.Check(ctx, version.Version)
	if err != nil {
		log.Debug("version check failed", zap.Error(err))
		return
	}
	if res.UpdateAvailable {
		log.Info("update available",
			zap.String("current", res.Current),
			zap.String("latest", res.Latest),
			zap.String("release", res.ReleaseURL),
		)
	}
}
