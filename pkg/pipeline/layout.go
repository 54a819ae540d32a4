package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// =============================================================================
// Layout Generation
// =============================================================================

// EnsureLayout installs a cached layout into e when one exists for this
// tree, viewport and geometry, and computes and stores one otherwise. It
// reports whether the cache was hit. An engine that already holds a layout
// for the viewport is left untouched and counts as a hit.
func (r *Runner) EnsureLayout(ctx context.Context, e *techtree.Engine, treeHash string, opts Options) (bool, error) {
	if !opts.Refresh && e.HasLayout(opts.Viewport()) {
		return true, nil
	}
	key := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts(e.Config()))
	hooks := observability.Cache()

	if !opts.Refresh {
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil {
			r.Logger.Warn("layout cache read failed", "error", err)
		}
		if hit {
			if ok := r.useCachedLayout(e, data); ok {
				hooks.OnCacheHit(ctx, "layout")
				return true, nil
			}
			_ = r.Cache.Delete(ctx, key)
		}
		hooks.OnCacheMiss(ctx, "layout")
	}

	res := e.Layout(opts.Viewport())
	data, err := json.Marshal(res)
	if err != nil {
		return false, err
	}
	if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
		r.Logger.Warn("layout cache write failed", "error", err)
	} else {
		hooks.OnCacheSet(ctx, "layout", len(data))
	}
	return false, nil
}

func (r *Runner) useCachedLayout(e *techtree.Engine, data []byte) bool {
	var res layout.Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.Logger.Debug("discarding unreadable cached layout", "error", err)
		return false
	}
	if err := e.UseLayout(&res); err != nil {
		r.Logger.Debug("discarding stale cached layout", "error", err)
		return false
	}
	return true
}
