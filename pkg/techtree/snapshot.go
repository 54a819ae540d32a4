package techtree

import (
	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/progress"
)

// Snapshot is the read-only view a renderer draws from.
type Snapshot struct {
	Viewport   layout.Viewport   `json:"viewport"`
	NodeWidth  float64           `json:"nodeWidth"`
	NodeHeight float64           `json:"nodeHeight"`
	MaxLayer   int               `json:"maxLayer"`
	Nodes      []NodeView        `json:"nodes"`
	Edges      []EdgeView        `json:"edges"`
	Progress   progress.Progress `json:"progress"`
	Crossings  int               `json:"crossings"`
}

// NodeView is one positioned, classified node.
type NodeView struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Type     dag.NodeType `json:"type"`
	Layer    int          `json:"layer"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Done     bool         `json:"isDone"`
	Unlocked bool         `json:"isUnlocked"`
	State    VisualState  `json:"visualState"`
}

// EdgeView is one classified prereq edge.
type EdgeView struct {
	From  string    `json:"fromId"`
	To    string    `json:"toId"`
	Class EdgeClass `json:"classification"`
}

// Snapshot returns nodes in input order and edges ordered by dependent, then
// by the dependent's prereq order.
//
// The returned value is cached until the next Toggle, Reset or viewport
// change and must not be modified.
func (e *Engine) Snapshot(vp layout.Viewport) *Snapshot {
	res := e.Layout(vp)
	if e.snap != nil {
		return e.snap
	}

	g := e.g
	statuses := make([]Status, g.Len())
	snap := &Snapshot{
		Viewport:   vp,
		NodeWidth:  e.cfg.NodeWidth,
		NodeHeight: e.cfg.NodeHeight,
		MaxLayer:   g.MaxLayer(),
		Nodes:      make([]NodeView, g.Len()),
		Progress:   e.state.Progress(),
		Crossings:  res.Crossings(g),
	}

	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		st := e.status(i)
		statuses[i] = st
		p := res.Positions[i]
		snap.Nodes[i] = NodeView{
			ID:       n.ID,
			Label:    n.DisplayLabel(),
			Type:     n.Type,
			Layer:    n.Layer,
			X:        p.X,
			Y:        p.Y,
			Done:     st.Done,
			Unlocked: st.Unlocked,
			State:    ClassifyNode(st, n.Type),
		}
	}

	edges := g.Edges()
	snap.Edges = make([]EdgeView, len(edges))
	for k, edge := range edges {
		to := g.Node(edge.To)
		snap.Edges[k] = EdgeView{
			From:  g.Node(edge.From).ID,
			To:    to.ID,
			Class: ClassifyEdge(statuses[edge.From], statuses[edge.To], to.Type),
		}
	}

	e.snap = snap
	return snap
}

// Node returns the view of a single node, or false if the id is unknown.
func (s *Snapshot) Node(id string) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}
