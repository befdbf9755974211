package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/nem12sql/internal/config"
	"github.com/JonMunkholm/nem12sql/internal/core"
	"github.com/JonMunkholm/nem12sql/internal/web"
)

// janitorInterval is how often expired run summaries are pruned.
const janitorInterval = time.Minute

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return withCode(exitUsage, err)
			}
			return runServe(cmd.Context(), &cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Interface to bind (overrides SERVER_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides SERVER_PORT)")
	return cmd
}

// runServe serves until ctx is cancelled, then drains in-flight
// conversions within the shutdown timeout.
func runServe(ctx context.Context, cfg *config.Config) error {
	service := core.NewService(cfg)
	server := web.NewServer(service, cfg)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(server.Start)

	group.Go(func() error {
		return service.RunJanitor(gctx, janitorInterval)
	})

	group.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := group.Wait()
	slog.Info("server stopped")
	return err
}
