// Package dag provides the prerequisite graph behind a tech tree.
//
// # Overview
//
// A tech tree is a list of nodes, each naming the nodes it requires. This
// package turns that list into an arena: every node gets an integer index in
// input order, prereqs are resolved to indices, and the reverse adjacency
// (dependents) is kept alongside so that "who relies on me" is as cheap as
// "what do I rely on".
//
// # Basic Usage
//
// Index the nodes with [New], then compute layers with [AssignLayers], or do
// both with [Build]:
//
//	g, err := dag.Build([]dag.Node{
//	    {ID: "fire"},
//	    {ID: "pottery", Prereqs: []string{"fire"}},
//	    {ID: "bronze", Prereqs: []string{"fire", "pottery"}},
//	})
//
// # Layers
//
// A node's layer is its longest-path depth from any prereq-less node. Layers
// drive vertical placement only; see the layout package for ordering within
// a layer.
//
// # Errors
//
// [New] rejects empty ids, duplicate ids and prereqs that reference unknown
// ids. [AssignLayers] rejects cycles and reports one of them. Both return
// coded errors from the errors package (MALFORMED_GRAPH, CYCLE_DETECTED) that
// wrap the sentinels declared here, so either errors.Is form works.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count crossings between adjacent
// layers with a Fenwick tree in O(E log V). They are diagnostics for layout
// quality.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Callers must synchronize
// access if multiple goroutines read or modify the same graph.
package dag
