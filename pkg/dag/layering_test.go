package dag

import (
	"errors"
	"slices"
	"strings"
	"testing"

	techerrors "github.com/matzehuels/techtree/pkg/errors"
)

func TestAssignLayers_Chain(t *testing.T) {
	g, err := Build(chain())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, layer := range want {
		n, _ := g.Lookup(id)
		if n.Layer != layer {
			t.Errorf("layer(%s) = %d, want %d", id, n.Layer, layer)
		}
	}
	if g.MaxLayer() != 2 {
		t.Errorf("MaxLayer() = %d, want 2", g.MaxLayer())
	}
	if !g.Layered() {
		t.Error("Layered() = false after AssignLayers")
	}
}

func TestAssignLayers_LongestPath(t *testing.T) {
	// d has a short path from a and a long one through b and c.
	g, err := Build([]Node{
		{ID: "d", Prereqs: []string{"a", "c"}},
		{ID: "c", Prereqs: []string{"b"}},
		{ID: "b", Prereqs: []string{"a"}},
		{ID: "a"},
		{ID: "solo"},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < g.Len(); i++ {
		n := g.Node(i)
		ps := g.Prereqs(i)
		if len(ps) == 0 {
			if n.Layer != 0 {
				t.Errorf("layer(%s) = %d, want 0 for root", n.ID, n.Layer)
			}
			continue
		}
		deepest := 0
		for _, p := range ps {
			deepest = max(deepest, g.Node(p).Layer)
		}
		if n.Layer != deepest+1 {
			t.Errorf("layer(%s) = %d, want %d", n.ID, n.Layer, deepest+1)
		}
	}

	d, _ := g.Lookup("d")
	if d.Layer != 3 {
		t.Errorf("layer(d) = %d, want 3", d.Layer)
	}
}

func TestAssignLayers_FanIn(t *testing.T) {
	var nodes []Node
	var all []string
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		nodes = append(nodes, Node{ID: id})
		all = append(all, id)
	}
	nodes = append(nodes, Node{ID: "sink", Prereqs: all})

	g, err := Build(nodes)
	if err != nil {
		t.Fatal(err)
	}
	sink, _ := g.Lookup("sink")
	if sink.Layer != 1 {
		t.Errorf("layer(sink) = %d, want 1", sink.Layer)
	}
}

func TestAssignLayers_Cycle(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{
			name:  "self loop",
			nodes: []Node{{ID: "a", Prereqs: []string{"a"}}},
		},
		{
			name: "two cycle",
			nodes: []Node{
				{ID: "a", Prereqs: []string{"b"}},
				{ID: "b", Prereqs: []string{"a"}},
			},
		},
		{
			name: "cycle behind root",
			nodes: []Node{
				{ID: "root"},
				{ID: "x", Prereqs: []string{"root", "z"}},
				{ID: "y", Prereqs: []string{"x"}},
				{ID: "z", Prereqs: []string{"y"}},
				{ID: "tail", Prereqs: []string{"z"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.nodes)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			err = AssignLayers(g)
			if !errors.Is(err, ErrGraphHasCycle) {
				t.Fatalf("AssignLayers() error = %v, want %v", err, ErrGraphHasCycle)
			}
			if !techerrors.Is(err, techerrors.ErrCodeCycleDetected) {
				t.Errorf("GetCode() = %v, want %v", techerrors.GetCode(err), techerrors.ErrCodeCycleDetected)
			}
			if g.Layered() {
				t.Error("Layered() = true after failed AssignLayers")
			}
		})
	}
}

func TestAssignLayers_CyclePath(t *testing.T) {
	g, _ := New([]Node{
		{ID: "root"},
		{ID: "x", Prereqs: []string{"root", "z"}},
		{ID: "y", Prereqs: []string{"x"}},
		{ID: "z", Prereqs: []string{"y"}},
	})
	err := AssignLayers(g)
	msg := techerrors.UserMessage(err)
	parts := strings.Split(msg, " -> ")
	if len(parts) != 4 || parts[0] != parts[3] {
		t.Fatalf("cycle path = %q, want closed path of 3 nodes", msg)
	}
	members := slices.Sorted(slices.Values(parts[:3]))
	if !slices.Equal(members, []string{"x", "y", "z"}) {
		t.Errorf("cycle members = %v, want [x y z]", members)
	}
}

func TestLayers(t *testing.T) {
	g, _ := Build([]Node{
		{ID: "b", Prereqs: []string{"a"}},
		{ID: "a"},
		{ID: "c"},
		{ID: "d", Prereqs: []string{"c"}},
	})
	layers := g.Layers()
	if len(layers) != 2 {
		t.Fatalf("len(Layers()) = %d, want 2", len(layers))
	}
	if got := g.IDs(layers[0]); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("layer 0 = %v, want [a c]", got)
	}
	if got := g.IDs(layers[1]); !slices.Equal(got, []string{"b", "d"}) {
		t.Errorf("layer 1 = %v, want [b d]", got)
	}
}

func TestLayers_Empty(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Layers() != nil {
		t.Error("Layers() on empty graph should be nil")
	}
	if g.MaxLayer() != 0 {
		t.Errorf("MaxLayer() = %d, want 0", g.MaxLayer())
	}
}
