// Package techtree is the engine behind an interactive tech tree.
//
// # Overview
//
// An [Engine] is built once from a node list. Construction indexes the nodes,
// rejects malformed input and cycles, and assigns every node a layer. From
// then on the engine owns the completion set and answers renderer queries:
//
//	e, err := techtree.New(nodes, techtree.WithLogger(logger))
//	if err != nil {
//	    return err // MALFORMED_GRAPH or CYCLE_DETECTED
//	}
//	e.Toggle("fire")
//	snap := e.Snapshot(layout.Viewport{Width: 1200, Height: 800})
//
// # Classification
//
// Node and edge styling is a pure function of structure and completion:
//
//   - Nodes: done > locked > goal / optional / required ([ClassifyNode])
//   - Edges: bothDone > locked > optional > required ([ClassifyEdge])
//
// # Caching
//
// Positions depend only on structure and viewport, so the layout is reused
// until the viewport changes. Snapshots are rebuilt after Toggle or Reset.
//
// # Concurrency
//
// The engine is synchronous and has no internal locking. Callers that share
// one engine across goroutines (for example, HTTP handlers) must serialize
// access themselves.
package techtree
