package graph

import (
	"github.com/matzehuels/techtree/pkg/dag"
	techerrors "github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/layout"
)

// =============================================================================
// Constants
// =============================================================================

// Supported tree file formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// =============================================================================
// Tree - Tech Tree Serialization
// =============================================================================

// Tree is the on-disk format of a tech tree.
//
// Layout is optional and overrides the default node box geometry for this
// tree. Command-line flags take precedence over it.
type Tree struct {
	Nodes  []Node         `json:"nodes" toml:"nodes" yaml:"nodes"`
	Layout *layout.Config `json:"layout,omitempty" toml:"layout,omitempty" yaml:"layout,omitempty"`
}

// Node is one serialized tech tree entry.
type Node struct {
	ID      string   `json:"id" toml:"id" yaml:"id"`
	Label   string   `json:"label,omitempty" toml:"label,omitempty" yaml:"label,omitempty"`
	Type    string   `json:"type,omitempty" toml:"type,omitempty" yaml:"type,omitempty"` // "required" (default), "optional" or "goal"
	Prereqs []string `json:"prereqs,omitempty" toml:"prereqs,omitempty" yaml:"prereqs,omitempty"`
	Desc    string   `json:"desc,omitempty" toml:"desc,omitempty" yaml:"desc,omitempty"`
}

// Config returns the tree's layout geometry with defaults applied.
func (t *Tree) Config() layout.Config {
	if t.Layout == nil {
		return layout.DefaultConfig()
	}
	return t.Layout.WithDefaults()
}

// =============================================================================
// Tree ↔ dag.Node Conversion
// =============================================================================

// ToNodes converts the serialized nodes into engine input, in file order.
// An unrecognized type is an INVALID_INPUT error naming the node.
func (t *Tree) ToNodes() ([]dag.Node, error) {
	out := make([]dag.Node, len(t.Nodes))
	for i, n := range t.Nodes {
		typ, err := dag.ParseNodeType(n.Type)
		if err != nil {
			return nil, techerrors.Wrap(techerrors.ErrCodeInvalidInput, err, "node %q", n.ID)
		}
		out[i] = dag.Node{
			ID:      n.ID,
			Label:   n.Label,
			Type:    typ,
			Prereqs: n.Prereqs,
			Desc:    n.Desc,
		}
	}
	return out, nil
}

// FromGraph serializes the nodes of g in input order. Required types are
// omitted since they are the default.
func FromGraph(g *dag.Graph) Tree {
	out := Tree{Nodes: make([]Node, g.Len())}
	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		sn := Node{
			ID:      n.ID,
			Label:   n.Label,
			Prereqs: n.Prereqs,
			Desc:    n.Desc,
		}
		if n.Type != dag.TypeRequired {
			sn.Type = n.Type.String()
		}
		out.Nodes[i] = sn
	}
	return out
}
