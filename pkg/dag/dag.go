package dag

import (
	"errors"
	"fmt"

	techerrors "github.com/matzehuels/techtree/pkg/errors"
)

var (
	// ErrInvalidNodeID is returned by [New] when a node ID is empty.
	// All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [New] when two nodes share an ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownPrereq is returned by [New] when a prereq references an ID
	// that is not part of the node list.
	ErrUnknownPrereq = errors.New("unknown prereq")

	// ErrGraphHasCycle is returned by [AssignLayers] when a node depends on
	// itself, directly or transitively.
	ErrGraphHasCycle = errors.New("graph contains a cycle")

	// ErrInvalidNodeType is returned by [ParseNodeType] for unrecognized types.
	ErrInvalidNodeType = errors.New("invalid node type")
)

// NodeType classifies a node for progress accounting and display.
type NodeType int

const (
	// TypeRequired nodes count towards the progress ratio.
	TypeRequired NodeType = iota
	// TypeOptional nodes are side branches; edges into them are drawn as optional.
	TypeOptional
	// TypeGoal marks the targets the tree leads up to.
	TypeGoal
)

var nodeTypeNames = [...]string{
	TypeRequired: "required",
	TypeOptional: "optional",
	TypeGoal:     "goal",
}

// String returns the wire name of the type ("required", "optional", "goal").
func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// ParseNodeType converts a wire name into a NodeType. The empty string maps to
// TypeRequired so that tree files may omit the field for the common case.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "", "required":
		return TypeRequired, nil
	case "optional":
		return TypeOptional, nil
	case "goal":
		return TypeGoal, nil
	}
	return TypeRequired, fmt.Errorf("%w: %q", ErrInvalidNodeType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(b []byte) error {
	v, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Node is one entry of the tech tree.
//
// ID, Label, Type, Prereqs and Desc come from the input and never change.
// Layer is set by [AssignLayers]; X and Y are overwritten by every layout pass.
type Node struct {
	ID      string
	Label   string
	Type    NodeType
	Prereqs []string // IDs this node depends on, in input order
	Desc    string

	Layer int
	X, Y  float64
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge connects a prereq (From) to the node that depends on it (To).
// Both endpoints are arena indices.
type Edge struct {
	From int
	To   int
}

// Graph is an arena of nodes addressed by integer index, with prereqs stored
// as indices and the reverse adjacency kept alongside for dependent lookups.
//
// The zero value is not usable - use [New]. Graph is not safe for concurrent
// use without external synchronization.
type Graph struct {
	nodes      []Node
	index      map[string]int
	prereqs    [][]int
	dependents [][]int
	maxLayer   int
	layered    bool
}

// New indexes nodes by ID and resolves prereq references to indices in O(n+e).
// The input slice is copied; node order is preserved and defines each node's
// index.
//
// Returns a MALFORMED_GRAPH error wrapping [ErrInvalidNodeID],
// [ErrDuplicateNodeID] or [ErrUnknownPrereq]. No graph is returned on failure.
func New(nodes []Node) (*Graph, error) {
	g := &Graph{
		nodes:      make([]Node, len(nodes)),
		index:      make(map[string]int, len(nodes)),
		prereqs:    make([][]int, len(nodes)),
		dependents: make([][]int, len(nodes)),
	}

	for i, n := range nodes {
		if n.ID == "" {
			return nil, techerrors.Wrap(techerrors.ErrCodeMalformedGraph, ErrInvalidNodeID, "node at position %d", i)
		}
		if _, exists := g.index[n.ID]; exists {
			return nil, techerrors.Wrap(techerrors.ErrCodeMalformedGraph, ErrDuplicateNodeID, "node %q", n.ID)
		}
		n.Prereqs = append([]string(nil), n.Prereqs...)
		g.nodes[i] = n
		g.index[n.ID] = i
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		if len(n.Prereqs) == 0 {
			continue
		}
		ps := make([]int, len(n.Prereqs))
		for j, pid := range n.Prereqs {
			p, ok := g.index[pid]
			if !ok {
				return nil, techerrors.Wrap(techerrors.ErrCodeMalformedGraph, ErrUnknownPrereq, "node %q requires %q", n.ID, pid)
			}
			ps[j] = p
			g.dependents[p] = append(g.dependents[p], i)
		}
		g.prereqs[i] = ps
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at index i. The pointer refers to the arena entry.
func (g *Graph) Node(i int) *Node { return &g.nodes[i] }

// Index returns the arena index for id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Lookup returns the node with the given ID and true, or nil and false.
func (g *Graph) Lookup(id string) (*Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.nodes[i], true
}

// Prereqs returns the indices node i depends on, in input order.
// The returned slice must not be modified.
func (g *Graph) Prereqs(i int) []int { return g.prereqs[i] }

// Dependents returns the indices of nodes that list i as a prereq, in arena
// order. The returned slice must not be modified.
func (g *Graph) Dependents(i int) []int { return g.dependents[i] }

// Edges returns every prereq edge ordered by dependent index, then by the
// dependent's prereq order.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for to, ps := range g.prereqs {
		for _, from := range ps {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// EdgeCount returns the number of prereq edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, ps := range g.prereqs {
		n += len(ps)
	}
	return n
}

// Layered reports whether [AssignLayers] has completed on this graph.
func (g *Graph) Layered() bool { return g.layered }

// MaxLayer returns the deepest layer, or 0 for an empty or unlayered graph.
func (g *Graph) MaxLayer() int { return g.maxLayer }

// Layers groups node indices by layer. Within a layer indices keep arena
// (input) order. Only meaningful after [AssignLayers].
func (g *Graph) Layers() [][]int {
	if len(g.nodes) == 0 {
		return nil
	}
	layers := make([][]int, g.maxLayer+1)
	for i := range g.nodes {
		l := g.nodes[i].Layer
		layers[l] = append(layers[l], i)
	}
	return layers
}

// IDs maps a slice of indices to node IDs.
func (g *Graph) IDs(idx []int) []string {
	ids := make([]string, len(idx))
	for i, v := range idx {
		ids[i] = g.nodes[v].ID
	}
	return ids
}

// PosMap maps each index in order to its position within the slice.
func PosMap(order []int) map[int]int {
	m := make(map[int]int, len(order))
	for i, v := range order {
		m[v] = i
	}
	return m
}
