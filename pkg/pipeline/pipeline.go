// Package pipeline provides the load → layout → render pipeline for tech
// trees.
//
// The CLI and the HTTP server both go through a [Runner] so that caching and
// validation behave the same on every entry point.
//
// # Stages
//
//  1. Load: read the tree file, build the engine and replay completions
//  2. Layout: position nodes for the viewport (cached by tree content)
//  3. Render: produce snapshot JSON, DOT or SVG (cached per completion state)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    TreePath: "civ.json",
//	    Done:     []string{"fire"},
//	    Formats:  []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/cache"
	techerrors "github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default viewport width in pixels.
	DefaultWidth = 1200.0

	// DefaultHeight is the default viewport height in pixels.
	DefaultHeight = 800.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Tree takes precedence over TreePath.
	TreePath string      `json:"tree_path,omitempty"`
	Tree     *graph.Tree `json:"tree,omitempty"`
	// Done lists node ids to complete, in order, after loading.
	Done []string `json:"done,omitempty"`

	// Layout options
	Width  float64       `json:"width,omitempty"`
	Height float64       `json:"height,omitempty"`
	Config layout.Config `json:"config,omitempty"` // overrides the tree's layout section

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Viewport returns the configured viewport.
func (o *Options) Viewport() layout.Viewport {
	return layout.Viewport{Width: o.Width, Height: o.Height}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Engine is the loaded engine with completions applied.
	Engine *techtree.Engine

	// TreeHash is the content hash of the tree.
	TreeHash string

	// Layout is the node placement used for rendering.
	Layout *layout.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayerCount int
	Crossings  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return techerrors.New(techerrors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(ValidFormats))
	for f := range ValidFormats {
		names = append(names, f)
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Tree == nil && o.TreePath == "" {
		return techerrors.New(techerrors.ErrCodeInvalidInput, "tree or tree_path is required")
	}
	if err := o.SetRenderDefaults(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults validates the viewport and formats and fills in
// defaults. It does not require a tree, so callers that already hold an
// engine can use it on its own.
func (o *Options) SetRenderDefaults() error {
	if !finite(o.Width) || !finite(o.Height) {
		return techerrors.New(techerrors.ErrCodeInvalidInput, "viewport must be finite (got %vx%v)", o.Width, o.Height)
	}
	if o.Width < 0 || o.Height < 0 {
		return techerrors.New(techerrors.ErrCodeInvalidInput, "viewport must not be negative (got %vx%v)", o.Width, o.Height)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(cfg layout.Config) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Viewport: o.Viewport(), Config: cfg}
}

// RenderKeyOpts returns cache key options for one rendered format. done must
// be the completed ids in input order so that equivalent replays share keys.
func (o *Options) RenderKeyOpts(cfg layout.Config, format string, done []string) cache.RenderKeyOpts {
	f := format
	if o.Detailed && format != FormatJSON {
		f += "+detailed"
	}
	return cache.RenderKeyOpts{
		LayoutKeyOpts: o.LayoutKeyOpts(cfg),
		Format:        f,
		Done:          done,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d nodes, %d edges, %d layers, %d crossings", s.NodeCount, s.EdgeCount, s.LayerCount, s.Crossings)
}
