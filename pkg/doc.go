// Package pkg provides the libraries behind techtree.
//
// # Overview
//
// A tech tree is a DAG of nodes where each node lists the prerequisites that
// must be completed before it unlocks. The pkg directory is organized into:
//
//  1. [dag], [progress], [layout] - the graph engine (indexing, layering,
//     completion state, barycenter layout)
//  2. [techtree] - the facade renderers talk to (snapshots, toggles, tooltips)
//  3. [graph] - the tree file format (JSON, TOML, YAML)
//  4. [pipeline] - orchestration (load → layout → render) with caching
//  5. [cache], [session] - infrastructure for the CLI and the HTTP server
//  6. [render/nodelink] - DOT and SVG output
//
// # Architecture
//
//	tree file (JSON/TOML/YAML)
//	         ↓
//	    [graph] decode → []dag.Node
//	         ↓
//	    [techtree] New: index, reject cycles, assign layers
//	         ↓
//	    Toggle / Reset ↔ [progress] completion set
//	         ↓
//	    Snapshot: [layout] positions + classified nodes and edges
//	         ↓
//	    JSON / DOT / SVG
//
// # Quick Start
//
//	tree, err := graph.ReadTreeFile("civ.json")
//	if err != nil {
//	    return err
//	}
//	nodes, err := tree.ToNodes()
//	if err != nil {
//	    return err
//	}
//	e, err := techtree.New(nodes, techtree.WithConfig(tree.Config()))
//	if err != nil {
//	    return err // MALFORMED_GRAPH or CYCLE_DETECTED
//	}
//	e.Toggle("fire")
//	snap := e.Snapshot(layout.Viewport{Width: 1200, Height: 800})
//
// [dag]: github.com/matzehuels/techtree/pkg/dag
// [progress]: github.com/matzehuels/techtree/pkg/progress
// [layout]: github.com/matzehuels/techtree/pkg/layout
// [techtree]: github.com/matzehuels/techtree/pkg/techtree
// [graph]: github.com/matzehuels/techtree/pkg/graph
// [pipeline]: github.com/matzehuels/techtree/pkg/pipeline
// [cache]: github.com/matzehuels/techtree/pkg/cache
// [session]: github.com/matzehuels/techtree/pkg/session
// [render/nodelink]: github.com/matzehuels/techtree/pkg/render/nodelink
package pkg
