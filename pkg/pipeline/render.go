package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/render/nodelink"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// Render produces one artifact from a snapshot.
func Render(ctx context.Context, snap *techtree.Snapshot, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		if err := graph.WriteJSON(&buf, snap); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(nodelink.ToDOT(snap, nodelink.Options{Detailed: opts.Detailed})), nil
	case FormatSVG:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(snap, nodelink.Options{Detailed: opts.Detailed}))
	}
	return nil, ValidateFormat(format)
}

// renderWithCache renders every requested format, reusing cached artifacts.
// It reports a hit only when every format came from the cache.
func (r *Runner) renderWithCache(ctx context.Context, e *techtree.Engine, treeHash string, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	hooks := observability.Cache()
	done := e.Completed()
	allHit := true

	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(treeHash, opts.RenderKeyOpts(e.Config(), format, done))

		if !opts.Refresh {
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil {
				r.Logger.Warn("render cache read failed", "format", format, "error", err)
			}
			if hit {
				hooks.OnCacheHit(ctx, "render")
				artifacts[format] = data
				continue
			}
			hooks.OnCacheMiss(ctx, "render")
		}

		allHit = false
		data, err := Render(ctx, e.Snapshot(opts.Viewport()), format, opts)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, cache.RenderTTL); err != nil {
			r.Logger.Warn("render cache write failed", "format", format, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "render", len(data))
		}
	}
	return artifacts, allHit, nil
}
