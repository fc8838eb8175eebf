package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/huescheme/internal/cache"
	"github.com/jmylchreest/huescheme/internal/metrics"
	"github.com/jmylchreest/huescheme/internal/server"
)

const redisPingTimeout = 3 * time.Second

type serveOptions struct {
	addr          string
	maxConcurrent int
	redisAddr     string
	metrics       bool
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the palette analysis HTTP service",
		Long: `Run the HTTP service that accepts image uploads on ` + server.AnalyzePath + `
and responds with the palette, Tailwind configuration and CSS variables.

Results are cached in Redis when an address is configured. The service
shuts down gracefully on SIGINT or SIGTERM.

Examples:
  huescheme serve --addr :9000
  huescheme serve --redis-addr localhost:6379 --max-concurrent 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	flags.IntVar(&opts.maxConcurrent, "max-concurrent", 0, "maximum concurrent analyses")
	flags.StringVar(&opts.redisAddr, "redis-addr", "", "Redis address for the result cache")
	flags.BoolVar(&opts.metrics, "metrics", true, "expose Prometheus metrics")

	return cmd
}

func runServe(cmd *cobra.Command, a *app, opts *serveOptions) error {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		a.config.Server.Addr = opts.addr
	}
	if flags.Changed("max-concurrent") {
		a.config.Server.MaxConcurrent = opts.maxConcurrent
	}
	if flags.Changed("redis-addr") {
		a.config.Cache.RedisAddr = opts.redisAddr
	}
	if flags.Changed("metrics") {
		a.config.Metrics.Enabled = opts.metrics
	}
	if err := a.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	analyzer, err := a.newAnalyzer()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store cache.Store
	if addr := a.config.Cache.RedisAddr; addr != "" {
		redisStore := newRedisStore(ctx, a)
		defer redisStore.Close()
		store = redisStore
	}

	srv, err := server.New(server.Options{
		Config:   a.config.Server,
		Metrics:  a.config.Metrics,
		Analyzer: analyzer,
		Cache:    store,
		Registry: metrics.NewRegistry(),
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	a.logger.Info("starting server",
		"algorithm", analyzer.Algorithm(),
		"options", analyzer.Fingerprint(),
		"cache", store != nil,
		"metrics", a.config.Metrics.Enabled,
	)
	return srv.Run(ctx)
}

// newRedisStore connects the result cache. An unreachable Redis is not
// fatal: lookups fail and are treated as misses until it recovers.
func newRedisStore(ctx context.Context, a *app) *cache.RedisStore {
	cfg := a.config.Cache
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := cache.NewRedisStore(client,
		cache.WithTTL(cfg.TTL),
		cache.WithPrefix(cfg.Prefix),
	)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		a.logger.Warn("redis unavailable, caching disabled until it recovers", "addr", cfg.RedisAddr, "error", err)
	} else {
		a.logger.Info("result cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	}
	return store
}
