package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/techtree/pkg/layout"
	techprogress "github.com/matzehuels/techtree/pkg/progress"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// Tree view styles
var (
	treeCursorStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	treeLayerStyle  = lipgloss.NewStyle().Foreground(colorDim).Width(4)
	treePanelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// =============================================================================
// TreeModel - Interactive tech tree
// =============================================================================

// TreeModel is the bubbletea model for playing a tech tree. Rows follow the
// layout order so that the terminal view matches rendered output.
type TreeModel struct {
	Engine   *techtree.Engine
	Viewport layout.Viewport
	Rows     [][]int
	Layer    int // cursor row
	Col      int // cursor position within the row
	Status   string
	Width    int
}

// NewTreeModel creates a tree model with the cursor on the first node.
func NewTreeModel(e *techtree.Engine, vp layout.Viewport) TreeModel {
	return TreeModel{
		Engine:   e,
		Viewport: vp,
		Rows:     e.Layout(vp).Rows,
		Width:    80,
	}
}

// Selected returns the id under the cursor, or "" for an empty tree.
func (m TreeModel) Selected() string {
	if m.Layer >= len(m.Rows) || m.Col >= len(m.Rows[m.Layer]) {
		return ""
	}
	return m.Engine.Graph().Node(m.Rows[m.Layer][m.Col]).ID
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Layer > 0 {
				m.Layer--
				m.Col = min(m.Col, len(m.Rows[m.Layer])-1)
			}
		case "down", "j":
			if m.Layer < len(m.Rows)-1 {
				m.Layer++
				m.Col = min(m.Col, len(m.Rows[m.Layer])-1)
			}
		case "left", "h":
			if m.Col > 0 {
				m.Col--
			}
		case "right", "l":
			if m.Layer < len(m.Rows) && m.Col < len(m.Rows[m.Layer])-1 {
				m.Col++
			}
		case "enter", " ":
			m.Status = m.toggle()
		case "r":
			m.Engine.Reset()
			m.Status = "Progress reset"
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
	}
	return m, nil
}

// toggle flips the selected node and describes what happened.
func (m TreeModel) toggle() string {
	id := m.Selected()
	if id == "" {
		return ""
	}
	res, err := m.Engine.Toggle(id)
	if err != nil {
		return err.Error()
	}
	switch res.Kind {
	case techprogress.ChangeCompleted:
		return "Completed " + id
	case techprogress.ChangeRevoked:
		if len(res.Revoked) > 0 {
			return fmt.Sprintf("Undid %s and %s", id, strings.Join(res.Revoked, ", "))
		}
		return "Undid " + id
	}
	return id + " is locked"
}

func (m TreeModel) View() string {
	var b strings.Builder

	p := m.Engine.Progress()
	b.WriteString(StyleTitle.Render("Tech Tree"))
	b.WriteString("  ")
	b.WriteString(progressBar(p.Done, p.Total, 20))
	b.WriteString(StyleDim.Render(fmt.Sprintf(" %d/%d", p.Done, p.Total)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←↑↓→ move  ⏎ toggle  r reset  q quit"))
	b.WriteString("\n\n")

	snap := m.Engine.Snapshot(m.Viewport)
	for l, row := range m.Rows {
		b.WriteString(treeLayerStyle.Render(fmt.Sprintf("%d", l)))
		for k, i := range row {
			nv := snap.Nodes[i]
			label := stateIcons[nv.State] + " " + nv.Label
			style := stateStyles[nv.State]
			if l == m.Layer && k == m.Col {
				style = style.Inherit(treeCursorStyle)
			}
			b.WriteString(style.Render(label))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}

	if tip, err := m.Engine.Tooltip(m.Selected()); err == nil {
		b.WriteString("\n")
		b.WriteString(treePanelStyle.Width(min(m.Width-2, 60)).Render(tooltipText(tip)))
		b.WriteString("\n")
	}
	if m.Status != "" {
		b.WriteString(StyleDim.Render(m.Status))
		b.WriteString("\n")
	}
	return b.String()
}

// tooltipText lays out a tooltip for the side panel.
func tooltipText(tip techtree.Tooltip) string {
	var b strings.Builder
	b.WriteString(stateStyles[tip.State].Bold(true).Render(tip.Label))
	b.WriteString(StyleDim.Render("  " + tip.Type.String()))
	if tip.Desc != "" {
		b.WriteString("\n" + tip.Desc)
	}
	if len(tip.Prereqs) > 0 {
		b.WriteString("\n" + StyleDim.Render("Requires: ") + strings.Join(tip.Prereqs, ", "))
	}
	b.WriteString("\n" + StyleDim.Render(tip.Hint))
	return b.String()
}
