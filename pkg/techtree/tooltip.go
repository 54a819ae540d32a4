package techtree

import (
	"strings"

	"github.com/matzehuels/techtree/pkg/dag"
)

// Tooltip carries what a renderer shows when hovering a node.
type Tooltip struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	Type    dag.NodeType `json:"type"`
	Desc    string       `json:"desc,omitempty"`
	Prereqs []string     `json:"prereqs"` // prereq labels in input order
	State   VisualState  `json:"visualState"`
	Hint    string       `json:"hint"`
}

// Tooltip resolves prereq labels and builds the status hint for id.
func (e *Engine) Tooltip(id string) (Tooltip, error) {
	i, err := e.index(id)
	if err != nil {
		return Tooltip{}, err
	}

	n := e.g.Node(i)
	st := e.status(i)
	tip := Tooltip{
		ID:      n.ID,
		Label:   n.DisplayLabel(),
		Type:    n.Type,
		Desc:    n.Desc,
		Prereqs: make([]string, 0, len(e.g.Prereqs(i))),
		State:   ClassifyNode(st, n.Type),
	}

	var missing []string
	for _, p := range e.g.Prereqs(i) {
		pn := e.g.Node(p)
		tip.Prereqs = append(tip.Prereqs, pn.DisplayLabel())
		if !e.state.IsDone(p) {
			missing = append(missing, pn.DisplayLabel())
		}
	}

	switch {
	case st.Done:
		tip.Hint = "Completed. Toggle to undo; dependents are undone too."
	case st.Locked():
		tip.Hint = "Locked. Complete first: " + strings.Join(missing, ", ")
	default:
		tip.Hint = "Unlocked. Toggle to mark complete."
	}
	return tip, nil
}
