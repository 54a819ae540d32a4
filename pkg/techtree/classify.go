package techtree

import (
	"fmt"

	"github.com/matzehuels/techtree/pkg/dag"
)

// VisualState is how a renderer should draw a node.
type VisualState int

const (
	StateRequired VisualState = iota
	StateOptional
	StateGoal
	StateLocked
	StateDone
)

var visualStateNames = [...]string{
	StateRequired: "required",
	StateOptional: "optional",
	StateGoal:     "goal",
	StateLocked:   "locked",
	StateDone:     "done",
}

func (s VisualState) String() string {
	if s < 0 || int(s) >= len(visualStateNames) {
		return fmt.Sprintf("VisualState(%d)", int(s))
	}
	return visualStateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s VisualState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *VisualState) UnmarshalText(b []byte) error {
	for i, name := range visualStateNames {
		if name == string(b) {
			*s = VisualState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown visual state %q", b)
}

// EdgeClass is how a renderer should draw a prereq edge.
type EdgeClass int

const (
	EdgeRequired EdgeClass = iota
	EdgeOptional
	EdgeLocked
	EdgeBothDone
)

var edgeClassNames = [...]string{
	EdgeRequired: "required",
	EdgeOptional: "optional",
	EdgeLocked:   "locked",
	EdgeBothDone: "bothDone",
}

func (c EdgeClass) String() string {
	if c < 0 || int(c) >= len(edgeClassNames) {
		return fmt.Sprintf("EdgeClass(%d)", int(c))
	}
	return edgeClassNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c EdgeClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *EdgeClass) UnmarshalText(b []byte) error {
	for i, name := range edgeClassNames {
		if name == string(b) {
			*c = EdgeClass(i)
			return nil
		}
	}
	return fmt.Errorf("unknown edge class %q", b)
}

// Status is the completion status of one node.
type Status struct {
	Done     bool
	Unlocked bool
}

// Locked reports whether the node is neither done nor unlocked.
func (s Status) Locked() bool { return !s.Done && !s.Unlocked }

// ClassifyNode applies the precedence done > locked > node type.
func ClassifyNode(s Status, t dag.NodeType) VisualState {
	switch {
	case s.Done:
		return StateDone
	case s.Locked():
		return StateLocked
	}
	switch t {
	case dag.TypeGoal:
		return StateGoal
	case dag.TypeOptional:
		return StateOptional
	}
	return StateRequired
}

// ClassifyEdge classifies the edge from a prereq to its dependent with the
// precedence bothDone > locked (either end) > optional (dependent type) >
// required.
func ClassifyEdge(from, to Status, toType dag.NodeType) EdgeClass {
	switch {
	case from.Done && to.Done:
		return EdgeBothDone
	case from.Locked() || to.Locked():
		return EdgeLocked
	case toType == dag.TypeOptional:
		return EdgeOptional
	}
	return EdgeRequired
}
