package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/internal/metrics"
	"github.com/matzehuels/techtree/internal/server"
	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/pipeline"
	"github.com/matzehuels/techtree/pkg/session"
)

// redisKeyPrefix scopes layout and render keys in a shared Redis.
const redisKeyPrefix = appName + ":"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr            string
	tree            string        // default tree for sessions created without one
	redisURL        string        // shared cache; local file cache when empty
	noCache         bool          // disable caching entirely
	ttl             time.Duration // idle session lifetime
	cleanupInterval time.Duration // how often expired sessions are swept
	metrics         bool          // serve Prometheus metrics at /metrics
}

// serveCommand creates the serve command, which runs the session HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:            ":8080",
		ttl:             session.DefaultTTL,
		cleanupInterval: session.DefaultCleanupInterval,
		metrics:         true,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tech tree session HTTP API",
		Long: `Run the tech tree session HTTP API.

Each session holds one engine and its completion state in memory. Layouts and
rendered snapshots are cached by tree content, in Redis when --redis is set so
that several instances share work.`,
		Example: `  techtree serve --tree civ.json
  techtree serve --addr :9000 --redis redis://localhost:6379/0 --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.tree, "tree", "", "default tree file for new sessions")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the shared cache (e.g. redis://localhost:6379/0)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", opts.ttl, "idle session lifetime")
	cmd.Flags().DurationVar(&opts.cleanupInterval, "cleanup-interval", opts.cleanupInterval, "how often expired sessions are removed")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", opts.metrics, "serve Prometheus metrics at /metrics")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	if opts.ttl <= 0 || opts.cleanupInterval <= 0 {
		return fmt.Errorf("--ttl and --cleanup-interval must be positive")
	}

	var defaultTree *graph.Tree
	if opts.tree != "" {
		tree, _, err := pipeline.LoadTree(pipeline.Options{TreePath: opts.tree})
		if err != nil {
			return loadError(opts.tree, err)
		}
		defaultTree = tree
	}

	runner, err := c.serverRunner(ctx, opts)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	store := session.NewMemoryStore(opts.ttl)
	cfg := server.Config{
		Addr:            opts.addr,
		DefaultTree:     defaultTree,
		CleanupInterval: opts.cleanupInterval,
	}
	if opts.metrics {
		m := metrics.New()
		m.Install()
		defer observability.Reset()
		m.TrackSessions(store.Len)
		cfg.Metrics = m.Handler()
	}

	return server.New(cfg, store, runner, c.Logger).Run(ctx)
}

// serverRunner picks the cache backend: Redis with scoped keys, the local
// file cache, or none.
func (c *CLI) serverRunner(ctx context.Context, opts serveOpts) (*pipeline.Runner, error) {
	if opts.redisURL == "" || opts.noCache {
		return c.newRunner(opts.noCache)
	}
	rc, err := cache.NewRedisCache(ctx, opts.redisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.Logger.Info("using redis cache", "prefix", redisKeyPrefix)
	return pipeline.NewRunner(rc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), redisKeyPrefix), c.Logger), nil
}
