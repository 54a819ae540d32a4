// Package nodelink renders tech tree snapshots as node-link diagrams.
//
// # Usage
//
// Convert a snapshot to DOT, then render to SVG:
//
//	snap := engine.Snapshot(layout.Viewport{Width: 1200, Height: 800})
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Positions
//
// Graphviz does not lay the tree out itself. Every node carries a pinned
// pos attribute taken from the snapshot, and [RenderSVG] uses the neato
// engine, which honors pinned positions. The DOT output can also be fed to
// "neato -n2" on the command line.
//
// # Styling
//
// Fill and border colors follow the node's visual state (done, locked, goal,
// optional, required); edge color and dashing follow the edge class.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
