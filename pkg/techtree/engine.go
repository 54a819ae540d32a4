package techtree

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/dag"
	techerrors "github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/progress"
)

// Engine ties a layered graph to its completion state and layout.
//
// The layout is cached per viewport and the snapshot per completion state:
// Toggle and Reset drop the snapshot, a new viewport drops both.
//
// Engine is not safe for concurrent use; callers sharing one must serialize
// access.
type Engine struct {
	g      *dag.Graph
	state  *progress.State
	cfg    layout.Config
	logger *log.Logger

	layout *layout.Result
	snap   *Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConfig overrides node box geometry. Zero fields keep their defaults.
func WithConfig(cfg layout.Config) Option {
	return func(e *Engine) { e.cfg = cfg.WithDefaults() }
}

// New indexes nodes and assigns layers. It fails with MALFORMED_GRAPH or
// CYCLE_DETECTED and never returns a partially built engine.
func New(nodes []dag.Node, opts ...Option) (*Engine, error) {
	g, err := dag.Build(nodes)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		g:      g,
		state:  progress.New(g),
		cfg:    layout.DefaultConfig(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger.Debug("built tech tree", "nodes", g.Len(), "edges", g.EdgeCount(), "layers", g.MaxLayer()+1)
	return e, nil
}

// Graph returns the underlying graph. Callers must treat it as read-only.
func (e *Engine) Graph() *dag.Graph { return e.g }

// Config returns the node box geometry in use.
func (e *Engine) Config() layout.Config { return e.cfg }

func (e *Engine) index(id string) (int, error) {
	i, ok := e.g.Index(id)
	if !ok {
		return 0, techerrors.New(techerrors.ErrCodeNotFound, "unknown node %q", id)
	}
	return i, nil
}

// ToggleResult reports the effect of [Engine.Toggle].
type ToggleResult struct {
	Kind    progress.ChangeKind
	Revoked []string // dependents revoked with the node, if any
}

// Changed reports whether the completion set changed.
func (r ToggleResult) Changed() bool { return r.Kind != progress.ChangeNone }

// Toggle completes an unlocked node, un-completes a done node together with
// every completed dependent, and ignores locked nodes. Only unknown ids are
// errors.
func (e *Engine) Toggle(id string) (ToggleResult, error) {
	i, err := e.index(id)
	if err != nil {
		return ToggleResult{}, err
	}

	change := e.state.Toggle(i)
	res := ToggleResult{Kind: change.Kind}
	if len(change.Cascade) > 0 {
		res.Revoked = e.g.IDs(change.Cascade)
	}

	switch change.Kind {
	case progress.ChangeNone:
		e.logger.Debug("toggle ignored, node is locked", "node", id)
	case progress.ChangeRevoked:
		e.snap = nil
		if len(res.Revoked) > 0 {
			e.logger.Debug("revoked node", "node", id, "cascade", strings.Join(res.Revoked, ","))
		} else {
			e.logger.Debug("revoked node", "node", id)
		}
	default:
		e.snap = nil
		e.logger.Debug("completed node", "node", id)
	}

	observability.Engine().OnToggle(id, change.Kind.String(), len(change.Cascade))
	return res, nil
}

// Reset clears the completion set.
func (e *Engine) Reset() {
	cleared := e.state.Len()
	e.state.Reset()
	e.snap = nil
	e.logger.Debug("reset progress", "cleared", cleared)
	observability.Engine().OnReset(cleared)
}

// IsLocked reports whether the node is neither done nor unlocked.
func (e *Engine) IsLocked(id string) (bool, error) {
	i, err := e.index(id)
	if err != nil {
		return false, err
	}
	return e.state.IsLocked(i), nil
}

// IsDone reports whether the node is completed.
func (e *Engine) IsDone(id string) (bool, error) {
	i, err := e.index(id)
	if err != nil {
		return false, err
	}
	return e.state.IsDone(i), nil
}

// Completed returns the ids of completed nodes in input order.
func (e *Engine) Completed() []string {
	return e.g.IDs(e.state.Completed())
}

// Progress returns the required-node completion ratio.
func (e *Engine) Progress() progress.Progress { return e.state.Progress() }

func (e *Engine) status(i int) Status {
	return Status{Done: e.state.IsDone(i), Unlocked: e.state.IsUnlocked(i)}
}

// Layout returns the layout for vp, recomputing it only when the viewport
// differs from the cached one.
func (e *Engine) Layout(vp layout.Viewport) *layout.Result {
	if e.HasLayout(vp) {
		return e.layout
	}

	start := time.Now()
	e.layout = layout.Compute(e.g, vp, e.cfg)
	e.snap = nil
	elapsed := time.Since(start)

	e.logger.Debug("computed layout", "width", vp.Width, "height", vp.Height, "layers", len(e.layout.Rows), "duration", elapsed)
	observability.Engine().OnLayout(e.g.Len(), len(e.layout.Rows), elapsed)
	return e.layout
}

// HasLayout reports whether a layout for vp is already held.
func (e *Engine) HasLayout(vp layout.Viewport) bool {
	return e.layout != nil && e.layout.Viewport == vp
}

// UseLayout installs a precomputed layout, typically one read back from a
// cache. It is rejected unless it was computed for this graph's shape and
// the engine's geometry.
func (e *Engine) UseLayout(res *layout.Result) error {
	if res == nil || len(res.Positions) != e.g.Len() || len(res.Rows) != len(e.g.Layers()) {
		return techerrors.New(techerrors.ErrCodeInvalidInput, "layout does not match graph")
	}
	if res.Config != e.cfg {
		return techerrors.New(techerrors.ErrCodeInvalidInput, "layout geometry does not match engine config")
	}
	for l, row := range res.Rows {
		for _, i := range row {
			if i < 0 || i >= e.g.Len() || e.g.Node(i).Layer != l {
				return techerrors.New(techerrors.ErrCodeInvalidInput, "layout row %d does not match graph layers", l)
			}
		}
	}

	for i, p := range res.Positions {
		n := e.g.Node(i)
		n.X, n.Y = p.X, p.Y
	}
	e.layout = res
	e.snap = nil
	return nil
}
