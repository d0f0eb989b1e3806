// cmd/signal-explorer/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signal-explorer/internal/common/config"
	"signal-explorer/internal/common/database"
	"signal-explorer/internal/common/logger"
	"signal-explorer/internal/explorer/facets"
	"signal-explorer/internal/explorer/records"
	"signal-explorer/internal/store"
	"signal-explorer/internal/store/backends"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "signal-explorer",
		Short:         "Explore and chart the signals dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(
		serveCmd(&configPath),
		importCmd(&configPath),
		renderCmd(&configPath),
		exploreCmd(&configPath),
		facetsCmd(&configPath),
	)
	return cmd
}

// app holds what every subcommand needs.
type app struct {
	cfg   *config.Config
	log   logger.Logger
	level zap.AtomicLevel
	store store.Store
	redis *database.RedisClient
}

func bootstrap(configPath string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	log, level, err := logger.NewLeveled(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}

	s, err := backends.New(cfg.Store, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	log.Info("store configured", map[string]interface{}{"store": cfg.Store.Describe()})
	if cfg.Store.URL == "" {
		log.Warn("store.url is not set; store operations will fail", nil)
	}

	return &app{cfg: cfg, log: log, level: level, store: s}, nil
}

func (a *app) storeTimeout() time.Duration {
	return config.GetDuration(a.cfg.Store.Timeout)
}

func (a *app) fetcher() *records.Fetcher {
	return records.NewFetcher(a.store, a.storeTimeout(), a.log)
}

// catalog builds the facet catalog, backed by redis when the cache is
// enabled and reachable.
func (a *app) catalog(ctx context.Context) *facets.Catalog {
	var opts []facets.Option
	if a.cfg.Cache.Enabled {
		rc := database.NewRedis(a.cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rc.Ping(ctx)
		}, 3, 500*time.Millisecond, a.log, "Redis connection")
		if err != nil {
			a.log.Warn("facet cache disabled", map[string]interface{}{"error": err})
			_ = rc.Close()
		} else {
			a.redis = rc
			ttl := time.Duration(a.cfg.Cache.TTL) * time.Second
			opts = append(opts, facets.WithCache(rc.Client, a.cfg.Cache.KeyPrefix, ttl))
			a.log.Info("redis connected", map[string]interface{}{"address": a.cfg.Database.Redis.Address})
		}
	}
	return facets.NewCatalog(a.store, a.storeTimeout(), a.log, opts...)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// retryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
