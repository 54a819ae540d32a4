package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/cache"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	tree, hash, err := LoadTree(opts)
	if err != nil {
		return nil, err
	}
	e, err := Load(tree, opts, opts.Logger)
	if err != nil {
		return nil, err
	}
	g := e.Graph()
	result.Engine = e
	result.TreeHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.Len()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.LayerCount = g.MaxLayer() + 1
	if g.Len() == 0 {
		result.Stats.LayerCount = 0
	}

	r.Logger.Info("loaded tree",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"completed", len(e.Completed()),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	layoutHit, err := r.EnsureLayout(ctx, e, hash, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = e.Layout(opts.Viewport())
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Crossings = result.Layout.Crossings(g)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"layers", result.Stats.LayerCount,
		"crossings", result.Stats.Crossings,
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.renderWithCache(ctx, e, hash, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}
