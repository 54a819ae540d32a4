// Package render groups the output formats for tech tree snapshots.
//
// Renderers never compute positions or states themselves. They read a
// [techtree.Snapshot], which already carries node coordinates, visual states
// and edge classes, and draw it.
//
// # Node-link Diagrams
//
// The [nodelink] subpackage writes a snapshot as Graphviz DOT with every node
// pinned at its layout position, and renders that DOT to SVG with the neato
// engine so that Graphviz keeps the positions as given:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [techtree.Snapshot]: github.com/matzehuels/techtree/pkg/techtree#Snapshot
// [nodelink]: github.com/matzehuels/techtree/pkg/render/nodelink
package render
