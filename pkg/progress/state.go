// Package progress owns the completion state of a tech tree.
//
// A [State] holds the CompletionSet for one graph and enforces the rule that
// a completed node always has all of its prereqs completed: locked nodes
// cannot be completed, and un-completing a node revokes every completed node
// that transitively relied on it.
//
// State is not safe for concurrent use.
package progress

import (
	"github.com/matzehuels/techtree/pkg/dag"
)

// ChangeKind describes what a [State.Toggle] call did.
type ChangeKind int

const (
	// ChangeNone means the node was locked and incomplete; nothing changed.
	ChangeNone ChangeKind = iota
	// ChangeCompleted means the node was added to the CompletionSet.
	ChangeCompleted
	// ChangeRevoked means the node and possibly some dependents were removed.
	ChangeRevoked
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCompleted:
		return "completed"
	case ChangeRevoked:
		return "revoked"
	}
	return "none"
}

// Change reports the effect of a toggle.
type Change struct {
	Kind ChangeKind
	// Cascade lists dependents revoked along with the toggled node, in the
	// order they were removed. Empty unless Kind is ChangeRevoked.
	Cascade []int
}

// Progress counts completed nodes of type required.
type Progress struct {
	Done  int     `json:"done"`
	Total int     `json:"total"`
	Ratio float64 `json:"ratio"`
}

// State is the CompletionSet of one graph.
type State struct {
	g    *dag.Graph
	done []bool
	n    int
}

// New returns an empty State for g.
func New(g *dag.Graph) *State {
	return &State{g: g, done: make([]bool, g.Len())}
}

// IsDone reports whether node i is in the CompletionSet.
func (s *State) IsDone(i int) bool { return s.done[i] }

// IsUnlocked reports whether every prereq of node i is completed. Nodes
// without prereqs are always unlocked.
func (s *State) IsUnlocked(i int) bool {
	for _, p := range s.g.Prereqs(i) {
		if !s.done[p] {
			return false
		}
	}
	return true
}

// IsLocked reports whether node i is neither done nor unlocked.
func (s *State) IsLocked(i int) bool {
	return !s.done[i] && !s.IsUnlocked(i)
}

// Toggle flips node i:
//   - locked and incomplete: no-op
//   - done: revoke every completed dependent, transitively, then i itself
//   - unlocked and incomplete: complete i
func (s *State) Toggle(i int) Change {
	switch {
	case s.done[i]:
		cascade := s.revoke(i)
		return Change{Kind: ChangeRevoked, Cascade: cascade}
	case !s.IsUnlocked(i):
		return Change{Kind: ChangeNone}
	default:
		s.done[i] = true
		s.n++
		return Change{Kind: ChangeCompleted}
	}
}

// revoke removes root and the downstream closure of completed dependents.
// Revocation only ever removes ids, so visiting order does not affect the
// final set.
func (s *State) revoke(root int) []int {
	var cascade []int
	stack := []int{root}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range s.g.Dependents(curr) {
			if s.done[dep] {
				s.done[dep] = false
				s.n--
				cascade = append(cascade, dep)
				stack = append(stack, dep)
			}
		}
	}
	s.done[root] = false
	s.n--
	return cascade
}

// Reset clears the CompletionSet.
func (s *State) Reset() {
	clear(s.done)
	s.n = 0
}

// Len returns the size of the CompletionSet.
func (s *State) Len() int { return s.n }

// Completed returns the completed node indices in arena order.
func (s *State) Completed() []int {
	out := make([]int, 0, s.n)
	for i, d := range s.done {
		if d {
			out = append(out, i)
		}
	}
	return out
}

// Progress returns completed-required over all-required. Ratio is 0 when the
// graph has no required nodes.
func (s *State) Progress() Progress {
	var p Progress
	for i := 0; i < s.g.Len(); i++ {
		if s.g.Node(i).Type != dag.TypeRequired {
			continue
		}
		p.Total++
		if s.done[i] {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Ratio = float64(p.Done) / float64(p.Total)
	}
	return p
}
