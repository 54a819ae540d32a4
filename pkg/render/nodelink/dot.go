package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/techtree/pkg/techtree"
)

// pointsPerInch converts pixel geometry into Graphviz node sizes.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the layer number and completion status to node labels.
	Detailed bool
}

type nodeStyle struct {
	style, fill, font, border string
}

var nodeStyles = map[techtree.VisualState]nodeStyle{
	techtree.StateRequired: {"rounded,filled", "white", "black", "black"},
	techtree.StateOptional: {"rounded,filled,dashed", "aliceblue", "black", "steelblue"},
	techtree.StateGoal:     {"rounded,filled,bold", "gold", "black", "darkgoldenrod"},
	techtree.StateLocked:   {"rounded,filled", "gainsboro", "gray45", "gray60"},
	techtree.StateDone:     {"rounded,filled", "palegreen", "black", "forestgreen"},
}

var edgeStyles = map[techtree.EdgeClass]string{
	techtree.EdgeRequired: `color=black`,
	techtree.EdgeOptional: `color=steelblue, style=dashed`,
	techtree.EdgeLocked:   `color=gray70, style=dashed`,
	techtree.EdgeBothDone: `color=forestgreen, penwidth=2`,
}

// ToDOT converts a snapshot to Graphviz DOT with every node pinned to its
// computed position. The result must be laid out with neato (see
// [RenderSVG]) so Graphviz keeps the positions instead of ranking again.
//
// Graphviz puts the origin at the bottom left, so y is flipped against the
// viewport height.
func ToDOT(snap *techtree.Snapshot, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, width=%s, height=%s, fontsize=12];\n",
		inches(snap.NodeWidth), inches(snap.NodeHeight))
	buf.WriteString("\n")

	for _, n := range snap.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(n, snap.Viewport.Height, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, edgeStyles[e.Class])
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n techtree.NodeView, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return fmt.Sprintf("%s\nlayer %d · %s", n.Label, n.Layer, n.State)
}

func fmtAttrs(n techtree.NodeView, height float64, detailed bool) []string {
	st := nodeStyles[n.State]
	return []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(height-n.Y)),
		fmt.Sprintf("style=%q", st.style),
		"fillcolor=" + st.fill,
		"fontcolor=" + st.font,
		"color=" + st.border,
	}
}

func inches(px float64) string { return num(px / pointsPerInch) }

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// RenderSVG renders pinned DOT to SVG using the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
