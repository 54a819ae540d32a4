package dag

import "slices"

// CountCrossings returns the total number of edge crossings for the given
// layer orderings. rows[l] holds the node indices of layer l from left to
// right. Only edges between consecutive layers are counted; edges that skip
// layers are routed by the renderer and have no fixed crossing points.
//
// Runs in O(L × E log V) where L is the number of layers.
func CountCrossings(g *Graph, rows [][]int) int {
	crossings := 0
	for l := 0; l+1 < len(rows); l++ {
		crossings += CountLayerCrossings(g, rows[l], rows[l+1])
	}
	return crossings
}

// CountLayerCrossings counts crossings between edges running from upper
// (prereqs) to lower (dependents) using a Fenwick tree.
//
// Two edges (u1,v1) and (u2,v2) cross if and only if:
//
//	pos(u1) < pos(u2) AND pos(v1) > pos(v2)
//
// which is the number of inversions in the lower positions once edges are
// sorted by upper position.
func CountLayerCrossings(g *Graph, upper, lower []int) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}

	lowerPos := PosMap(lower)

	type edge struct{ upper, lower int }
	edges := make([]edge, 0, len(upper)*2)
	for i, u := range upper {
		for _, dep := range g.dependents[u] {
			if pos, ok := lowerPos[dep]; ok {
				edges = append(edges, edge{i, pos})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}

	slices.SortFunc(edges, func(a, b edge) int {
		if a.upper != b.upper {
			return a.upper - b.upper
		}
		return a.lower - b.lower
	})

	fenwick := make([]int, len(lower)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		lessOrEqual := 0
		for q := e.lower + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += total - lessOrEqual

		total++
		for idx := e.lower + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx]++
		}
	}
	return crossings
}
