// cmd/signal-explorer/serve.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"signal-explorer/internal/api"
	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/common/observability"
	"signal-explorer/internal/explorer/chart"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the explorer HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(cmd.Context(), a)
		},
	}
}

func serve(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchLogLevel(a)

	obs := observability.New(a.cfg.App.Name, nil, a.log)
	h := api.NewHandler(a.store, a.fetcher(), a.catalog(ctx), chart.OptionsFromConfig(a.cfg.Chart), a.log)
	srv := api.NewServer(a.cfg.Server, h, obs, a.log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down", nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errCh
}

// watchLogLevel applies logging.level changes from the config file.
func watchLogLevel(a *app) {
	err := config.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			a.log.Warn("config reload rejected", map[string]interface{}{"error": err.Error()})
			return
		}
		level := logger.ParseLevel(cfg.Logging.Level)
		if level != a.level.Level() {
			a.level.SetLevel(level)
			a.log.Info("log level changed", map[string]interface{}{"level": level.String()})
		}
	})
	if errors.Is(err, config.ErrNoConfigFile) {
		a.log.Debug("config watch disabled", map[string]interface{}{"reason": err.Error()})
	}
}
