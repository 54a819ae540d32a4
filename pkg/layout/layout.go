// Package layout positions the nodes of a layered tech tree.
//
// Nodes are grouped by layer, ordered within each layer by the barycenter
// heuristic, and centered horizontally as a row. Layer 0 sits at the top and
// the deepest layer at the bottom.
//
// The result depends only on graph structure, viewport and [Config]; the
// completion state never moves a node. Two passes over the same inputs
// produce identical coordinates.
package layout

import (
	"slices"

	"github.com/matzehuels/techtree/pkg/dag"
)

// Point is a node position: X is the horizontal center of the box, Y its top
// edge.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Result is one layout pass.
type Result struct {
	Viewport Viewport `json:"viewport"`
	Config   Config   `json:"config"`
	// Rows holds node indices per layer, left to right.
	Rows [][]int `json:"rows"`
	// Positions is indexed by node index.
	Positions []Point `json:"positions"`
}

// Compute orders and positions every node of g, which must already carry
// layers (see dag.AssignLayers). The computed X/Y are also written back into
// the graph's nodes.
//
// Zero fields of cfg take their defaults. Degenerate viewports are not
// rejected; rows simply overflow or collapse.
func Compute(g *dag.Graph, vp Viewport, cfg Config) *Result {
	cfg = cfg.WithDefaults()
	res := &Result{
		Viewport:  vp,
		Config:    cfg,
		Positions: make([]Point, g.Len()),
	}

	layers := g.Layers()
	maxLayer := g.MaxLayer()
	res.Rows = make([][]int, len(layers))

	for l, members := range layers {
		row := slices.Clone(members)
		if l > 0 {
			orderByBarycenter(g, row, res.Positions)
		}
		res.Rows[l] = row

		y := rowY(l, maxLayer, vp.Height, cfg.LayerPadding)
		for k, i := range row {
			res.Positions[i] = Point{X: rowX(k, len(row), vp.Width, cfg), Y: y}
		}
	}

	for i, p := range res.Positions {
		n := g.Node(i)
		n.X, n.Y = p.X, p.Y
	}
	return res
}

// orderByBarycenter stable-sorts row by the mean x of each node's prereqs.
// Prereqs always live in shallower layers, which are positioned first.
func orderByBarycenter(g *dag.Graph, row []int, pos []Point) {
	keys := make(map[int]float64, len(row))
	for _, i := range row {
		keys[i] = barycenter(g.Prereqs(i), pos)
	}
	slices.SortStableFunc(row, func(a, b int) int {
		ka, kb := keys[a], keys[b]
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}

func barycenter(prereqs []int, pos []Point) float64 {
	if len(prereqs) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prereqs {
		sum += pos[p].X
	}
	return sum / float64(len(prereqs))
}

// rowY interpolates between layerPadding and height-layerPadding.
// A single-layer graph puts every node on the top row.
func rowY(layer, maxLayer int, height, padding float64) float64 {
	if maxLayer == 0 {
		return padding
	}
	return padding + (height-2*padding)*float64(layer)/float64(maxLayer)
}

// rowX returns the center of slot k in a row of count boxes centered in width.
func rowX(k, count int, width float64, cfg Config) float64 {
	total := float64(count)*cfg.NodeWidth + float64(count-1)*cfg.NodeGap
	return (width-total)/2 + cfg.NodeWidth/2 + float64(k)*(cfg.NodeWidth+cfg.NodeGap)
}

// Crossings counts edge crossings between adjacent layers for this result.
func (r *Result) Crossings(g *dag.Graph) int {
	return dag.CountCrossings(g, r.Rows)
}
