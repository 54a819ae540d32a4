package nodelink

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/dag"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/techtree"
)

func snapshot(t *testing.T) *techtree.Snapshot {
	t.Helper()
	e, err := techtree.New([]dag.Node{
		{ID: "fire", Label: "Fire"},
		{ID: "cooking", Label: "Cooking", Prereqs: []string{"fire"}},
		{ID: "feast", Type: dag.TypeGoal, Prereqs: []string{"cooking"}},
	}, techtree.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	e.Toggle("fire")
	return e.Snapshot(layout.Viewport{Width: 800, Height: 600})
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(snapshot(t), Options{})

	for _, want := range []string{
		"digraph G {",
		`"fire" [label="Fire", pos="400,566!"`,  // top row, y flipped
		`"feast" [label="feast", pos="400,34!"`, // bottom row
		"fillcolor=palegreen",                   // fire is done
		"fillcolor=gainsboro",                   // feast is locked
		`"fire" -> "cooking" [color=black]`,
		`"cooking" -> "feast" [color=gray70, style=dashed]`,
		"fixedsize=true",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(snapshot(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="Cooking\nlayer 1 · required"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("svg without viewBox should be unchanged, got %s", got)
	}
}
