package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkordes/fitroute/internal/cache"
	"github.com/pkordes/fitroute/internal/config"
	"github.com/pkordes/fitroute/internal/reconcile"
	"github.com/pkordes/fitroute/internal/routeclient"
)

// app is the per-invocation wiring shared by every subcommand.
type app struct {
	store   *reconcile.Store
	logger  *slog.Logger
	closers []func() error
}

// close flushes pending cache writes and releases the cache backend.
func (a *app) close() {
	if a.store == nil {
		return
	}
	a.store.Wait()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func newRootCmd() (*cobra.Command, *app) {
	v := config.NewClientViper()
	a := &app{}

	root := &cobra.Command{
		Use:           "fitroute",
		Short:         "Record and sync walking and cycling routes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient(v)
			if err != nil {
				return err
			}
			return a.open(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-url", "", "base URL of the FitRoute API (env FITROUTE_API_URL)")
	flags.String("cache", "", "cache backend: memory, file or redis (env FITROUTE_CACHE_BACKEND)")
	flags.String("cache-dir", "", "directory for the file cache (env FITROUTE_CACHE_DIR)")
	flags.String("redis-addr", "", "address of the redis cache (env FITROUTE_REDIS_ADDR)")
	flags.Duration("timeout", 0, "per-request timeout (env FITROUTE_REQUEST_TIMEOUT)")
	flags.String("log-level", "", "debug, info, warn or error (env FITROUTE_LOG_LEVEL)")
	bindFlags(v, root, map[string]string{
		"API_URL":         "api-url",
		"CACHE_BACKEND":   "cache",
		"CACHE_DIR":       "cache-dir",
		"REDIS_ADDR":      "redis-addr",
		"REQUEST_TIMEOUT": "timeout",
		"LOG_LEVEL":       "log-level",
	})

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)
	return root, a
}

// bindFlags lets a flag override its config key only when the flag is set,
// so environment variables and defaults still apply otherwise.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// open builds the logger, cache, remote client and store, then loads the
// collection.
func (a *app) open(ctx context.Context, cfg config.ClientConfig, logOut io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	a.logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, err := a.openCache(ctx, cfg)
	if err != nil {
		return err
	}

	remote := routeclient.New(cfg.APIURL, cfg.RequestTimeout, routeclient.WithLogger(a.logger))
	a.store = reconcile.NewStore(remote, cache.NewRouteCache(store, a.logger), a.logger)
	a.store.Load(ctx)
	return nil
}

func (a *app) openCache(ctx context.Context, cfg config.ClientConfig) (cache.Store, error) {
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return cache.NewMemoryStore(), nil
	case config.CacheRedis:
		client, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewRedisStore(client, a.logger), nil
	default:
		return cache.NewFileStore(cfg.CacheDir)
	}
}
