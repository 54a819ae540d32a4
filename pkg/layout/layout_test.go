package layout

import (
	"slices"
	"testing"

	"github.com/matzehuels/techtree/pkg/dag"
)

func mustBuild(t *testing.T, nodes []dag.Node) *dag.Graph {
	t.Helper()
	g, err := dag.Build(nodes)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return g
}

func pos(t *testing.T, g *dag.Graph, r *Result, id string) Point {
	t.Helper()
	i, ok := g.Index(id)
	if !ok {
		t.Fatalf("unknown id %q", id)
	}
	return r.Positions[i]
}

func TestCompute_Chain(t *testing.T) {
	g := mustBuild(t, []dag.Node{
		{ID: "a"},
		{ID: "b", Prereqs: []string{"a"}},
		{ID: "c", Prereqs: []string{"a", "b"}},
	})
	r := Compute(g, Viewport{Width: 800, Height: 600}, Config{})

	tests := []struct {
		id   string
		want Point
	}{
		{"a", Point{X: 400, Y: 34}},
		{"b", Point{X: 400, Y: 300}},
		{"c", Point{X: 400, Y: 566}},
	}
	for _, tt := range tests {
		if got := pos(t, g, r, tt.id); got != tt.want {
			t.Errorf("position(%s) = %+v, want %+v", tt.id, got, tt.want)
		}
	}

	n, _ := g.Lookup("c")
	if n.X != 400 || n.Y != 566 {
		t.Errorf("node c = (%v, %v), want written-back (400, 566)", n.X, n.Y)
	}
}

func TestCompute_RowCentering(t *testing.T) {
	g := mustBuild(t, []dag.Node{{ID: "p"}, {ID: "q"}, {ID: "r"}})
	cfg := Config{NodeWidth: 100, NodeGap: 20, LayerPadding: 10}
	r := Compute(g, Viewport{Width: 1000, Height: 400}, cfg)

	// total = 3*100 + 2*20 = 340; first center = (1000-340)/2 + 50 = 380
	wantX := []float64{380, 500, 620}
	for i, id := range []string{"p", "q", "r"} {
		p := pos(t, g, r, id)
		if p.X != wantX[i] {
			t.Errorf("x(%s) = %v, want %v", id, p.X, wantX[i])
		}
		if p.Y != 10 {
			t.Errorf("y(%s) = %v, want 10 (single row)", id, p.Y)
		}
	}
}

func TestCompute_SingleLayerGuard(t *testing.T) {
	g := mustBuild(t, []dag.Node{{ID: "only"}})
	r := Compute(g, Viewport{Width: 300, Height: 200}, Config{})
	p := pos(t, g, r, "only")
	if p.Y != DefaultLayerPadding {
		t.Errorf("y = %v, want %v", p.Y, DefaultLayerPadding)
	}
	if p.X != 150 {
		t.Errorf("x = %v, want 150", p.X)
	}
}

func TestCompute_Barycenter(t *testing.T) {
	// x requires q (right), y requires p (left): barycenter swaps them.
	g := mustBuild(t, []dag.Node{
		{ID: "p"},
		{ID: "q"},
		{ID: "x", Prereqs: []string{"q"}},
		{ID: "y", Prereqs: []string{"p"}},
	})
	r := Compute(g, Viewport{Width: 800, Height: 600}, Config{})

	if got := g.IDs(r.Rows[0]); !slices.Equal(got, []string{"p", "q"}) {
		t.Errorf("row 0 = %v, want input order [p q]", got)
	}
	if got := g.IDs(r.Rows[1]); !slices.Equal(got, []string{"y", "x"}) {
		t.Errorf("row 1 = %v, want [y x]", got)
	}
	if c := r.Crossings(g); c != 0 {
		t.Errorf("Crossings() = %d, want 0", c)
	}
	if c := dag.CountCrossings(g, g.Layers()); c != 1 {
		t.Errorf("input-order crossings = %d, want 1", c)
	}
}

func TestCompute_BarycenterMean(t *testing.T) {
	// m sits between l and r; its key is the mean of both.
	g := mustBuild(t, []dag.Node{
		{ID: "l"},
		{ID: "mid"},
		{ID: "r"},
		{ID: "right", Prereqs: []string{"r"}},
		{ID: "m", Prereqs: []string{"l", "r"}},
		{ID: "left", Prereqs: []string{"l"}},
	})
	r := Compute(g, Viewport{Width: 900, Height: 300}, Config{})
	if got := g.IDs(r.Rows[1]); !slices.Equal(got, []string{"left", "m", "right"}) {
		t.Errorf("row 1 = %v, want [left m right]", got)
	}
}

func TestCompute_StableTies(t *testing.T) {
	g := mustBuild(t, []dag.Node{
		{ID: "root"},
		{ID: "c1", Prereqs: []string{"root"}},
		{ID: "c2", Prereqs: []string{"root"}},
		{ID: "c3", Prereqs: []string{"root"}},
	})
	r := Compute(g, Viewport{Width: 800, Height: 600}, Config{})
	if got := g.IDs(r.Rows[1]); !slices.Equal(got, []string{"c1", "c2", "c3"}) {
		t.Errorf("row 1 = %v, want input order on ties", got)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	nodes := []dag.Node{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
		{ID: "d", Prereqs: []string{"c", "a"}},
		{ID: "e", Prereqs: []string{"b"}},
		{ID: "f", Prereqs: []string{"d", "e"}},
		{ID: "g", Prereqs: []string{"a"}},
	}
	vp := Viewport{Width: 1024, Height: 768}

	g1 := mustBuild(t, nodes)
	g2 := mustBuild(t, nodes)
	r1 := Compute(g1, vp, Config{})
	r2 := Compute(g2, vp, Config{})
	r3 := Compute(g1, vp, Config{})

	if !slices.Equal(r1.Positions, r2.Positions) || !slices.Equal(r1.Positions, r3.Positions) {
		t.Errorf("positions differ between passes:\n%v\n%v\n%v", r1.Positions, r2.Positions, r3.Positions)
	}
}

func TestCompute_Empty(t *testing.T) {
	g := mustBuild(t, nil)
	r := Compute(g, Viewport{Width: 100, Height: 100}, Config{})
	if len(r.Positions) != 0 || len(r.Rows) != 0 {
		t.Errorf("Compute() on empty graph = %+v", r)
	}
}

func TestConfig(t *testing.T) {
	c := Config{NodeWidth: 200}.WithDefaults()
	want := Config{NodeWidth: 200, NodeHeight: 44, NodeGap: 30, LayerPadding: 34}
	if c != want {
		t.Errorf("WithDefaults() = %+v, want %+v", c, want)
	}

	m := DefaultConfig().Merge(Config{NodeGap: 5})
	if m.NodeGap != 5 || m.NodeWidth != DefaultNodeWidth {
		t.Errorf("Merge() = %+v", m)
	}
}
