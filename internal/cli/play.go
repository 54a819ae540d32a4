package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/pipeline"
)

// playCommand creates the play command, an interactive terminal view of a
// tree.
func (c *CLI) playCommand() *cobra.Command {
	var (
		flags   viewFlags
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "play [file]",
		Short: "Explore and complete a tech tree in the terminal",
		Long: `Explore and complete a tech tree in the terminal.

Move between nodes with the arrow keys and toggle the selected node with
enter. Undoing a node also undoes everything that depended on it. On exit the
completed ids are printed so the session can be resumed with --done.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlay(cmd.Context(), flags.options(args[0], c.Logger), noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}

func (c *CLI) runPlay(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	start := time.Now()
	tree, hash, err := pipeline.LoadTree(opts)
	if err != nil {
		return loadError(opts.TreePath, err)
	}
	e, err := pipeline.Load(tree, opts, c.Logger)
	if err != nil {
		return loadError(opts.TreePath, err)
	}
	if _, err := runner.EnsureLayout(ctx, e, hash, opts); err != nil {
		return err
	}
	logLoaded(c.Logger, opts.TreePath, e, start)

	final, err := tea.NewProgram(NewTreeModel(e, opts.Viewport()), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("run tree view: %w", err)
	}

	m := final.(TreeModel)
	p := m.Engine.Progress()
	printNewline()
	printSuccess("%d/%d required done", p.Done, p.Total)
	if done := m.Engine.Completed(); len(done) > 0 {
		printNextStep("Resume with", fmt.Sprintf("%s play %s --done %s", appName, opts.TreePath, strings.Join(done, ",")))
	}
	return nil
}
