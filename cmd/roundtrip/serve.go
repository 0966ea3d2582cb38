package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/server"
	"github.com/aman-zulfiqar/jupiter-roundtrip/internal/swapengine"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (quotes, recent round trips, flags)",
		RunE:  runServe,
	}
	cmd.Flags().Bool("dev", false, "include error details in responses")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap(cmd)
	if err != nil {
		logger.WithError(err).Error("invalid configuration")
		return err
	}
	devMode, _ := cmd.Flags().GetBool("dev")

	ctx, stop := signalContext()
	defer stop()

	d := openDeps(ctx, cfg, logger)
	defer d.Close()

	engine, err := swapengine.NewEngineFromConfig(cfg, logger, d.engineOptions()...)
	if err != nil {
		return err
	}

	h := &server.Handlers{
		Quoter:  engine,
		DevMode: devMode,
		Logger:  logger,
	}
	h.Checks = map[string]server.Pinger{}
	if d.redis != nil {
		h.Recent = d.redis
		h.Checks["redis"] = d.redis
	}
	if d.flags != nil {
		h.Flags = d.flags
	}
	if d.history != nil {
		h.Checks["clickhouse"] = d.history
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: devMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "api server")
	}
	return srv.WaitClosed(context.Background())
}
