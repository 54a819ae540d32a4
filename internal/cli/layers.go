package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/pipeline"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// layersCommand creates the layers command, which validates a tree and prints
// its layer assignment.
func (c *CLI) layersCommand() *cobra.Command {
	var (
		done   []string
		export string
	)

	cmd := &cobra.Command{
		Use:   "layers [file]",
		Short: "Validate a tree file and print its layers",
		Long: `Validate a tree file and print its layers.

Every node lands one layer below its deepest prerequisite. Cycles, duplicate
ids and unknown prerequisites are reported as errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayers(args[0], done, export)
		},
	}

	cmd.Flags().StringSliceVar(&done, "done", nil, "node ids to mark completed, in order")
	cmd.Flags().StringVar(&export, "export", "", "write the validated tree to this file (format from extension)")
	return cmd
}

func (c *CLI) runLayers(input string, done []string, export string) error {
	start := time.Now()
	tree, _, err := pipeline.LoadTree(pipeline.Options{TreePath: input})
	if err != nil {
		return loadError(input, err)
	}
	e, err := pipeline.Load(tree, pipeline.Options{Done: done}, c.Logger)
	if err != nil {
		return loadError(input, err)
	}
	logLoaded(c.Logger, input, e, start)

	fmt.Println(layerTable(e))
	p := e.Progress()
	printDetail("%d/%d required done", p.Done, p.Total)

	if export != "" {
		out := graph.FromGraph(e.Graph())
		out.Layout = tree.Layout
		if err := graph.WriteTreeFile(export, &out); err != nil {
			return err
		}
		printFile(export)
	}
	return nil
}

// layerTable renders one row per layer listing its nodes in input order,
// colored by visual state.
func layerTable(e *techtree.Engine) string {
	g := e.Graph()
	snap := e.Snapshot(layout.Viewport{Width: pipeline.DefaultWidth, Height: pipeline.DefaultHeight})

	var rows [][]string
	for l, members := range g.Layers() {
		names := make([]string, len(members))
		for k, i := range members {
			nv := snap.Nodes[i]
			names[k] = stateStyles[nv.State].Render(stateIcons[nv.State] + " " + nv.Label)
		}
		rows = append(rows, []string{strconv.Itoa(l), strconv.Itoa(len(members)), strings.Join(names, "  ")})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layer", "Nodes", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			if col < 2 {
				return StyleNumber.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		String()
}
