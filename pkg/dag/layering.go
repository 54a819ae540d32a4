package dag

import (
	"strings"

	techerrors "github.com/matzehuels/techtree/pkg/errors"
)

// AssignLayers sets every node's Layer to its longest-path depth:
//
//	layer(n) = 0                            if n has no prereqs
//	layer(n) = 1 + max(layer(p) for p in n.Prereqs)
//
// # Algorithm
//
// AssignLayers performs a topological traversal (Kahn's algorithm):
//  1. Seed the queue with every node that has no prereqs, at layer 0
//  2. Pop a node; push each dependent to max(current, popped+1)
//  3. Decrement the dependent's pending count; enqueue it at zero
//
// Each node is finalized exactly once, regardless of fan-in.
//
// # Cycles
//
// If the queue drains before every node is finalized, the remaining nodes sit
// on or behind a cycle. AssignLayers then returns a CYCLE_DETECTED error
// wrapping [ErrGraphHasCycle] that names one concrete cycle, and leaves the
// existing layer values untouched.
//
// Time complexity is O(V + E).
func AssignLayers(g *Graph) error {
	n := len(g.nodes)
	pending := make([]int, n)
	layers := make([]int, n)
	queue := make([]int, 0, n)

	for i := range g.nodes {
		pending[i] = len(g.prereqs[i])
		if pending[i] == 0 {
			queue = append(queue, i)
		}
	}

	done := 0
	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		done++
		for _, dep := range g.dependents[curr] {
			if l := layers[curr] + 1; l > layers[dep] {
				layers[dep] = l
			}
			pending[dep]--
			if pending[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if done < n {
		cycle := findCycle(g, pending)
		return techerrors.Wrap(techerrors.ErrCodeCycleDetected, ErrGraphHasCycle, "%s", strings.Join(g.IDs(cycle), " -> "))
	}

	maxLayer := 0
	for i := range g.nodes {
		g.nodes[i].Layer = layers[i]
		maxLayer = max(maxLayer, layers[i])
	}
	g.maxLayer = maxLayer
	g.layered = true
	return nil
}

// findCycle walks prereq edges among unfinished nodes until it revisits one.
// Every unfinished node has at least one unfinished prereq, so the walk
// cannot dead-end. The returned path starts and ends at the same node.
func findCycle(g *Graph, pending []int) []int {
	start := -1
	for i, p := range pending {
		if p > 0 {
			start = i
			break
		}
	}

	seenAt := make(map[int]int)
	var path []int
	for curr := start; ; {
		if at, ok := seenAt[curr]; ok {
			return append(path[at:], curr)
		}
		seenAt[curr] = len(path)
		path = append(path, curr)
		for _, p := range g.prereqs[curr] {
			if pending[p] > 0 {
				curr = p
				break
			}
		}
	}
}

// Build indexes nodes and assigns layers in one step. It is the usual entry
// point for callers that do not need the unlayered graph.
func Build(nodes []Node) (*Graph, error) {
	g, err := New(nodes)
	if err != nil {
		return nil, err
	}
	if err := AssignLayers(g); err != nil {
		return nil, err
	}
	return g, nil
}
