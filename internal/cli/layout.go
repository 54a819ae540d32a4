package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/pipeline"
)

// layoutCommand creates the layout command, which writes the positioned
// snapshot of a tree as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags   viewFlags
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute node positions and write the snapshot JSON",
		Long: `Compute node positions and write the snapshot JSON.

The snapshot lists every node with its layer, coordinates and visual state,
and every prerequisite edge with its classification. Use "-o -" to write to
stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(args[0], c.Logger)
			opts.Formats = []string{pipeline.FormatJSON}
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return loadError(opts.TreePath, err)
	}
	data := result.Artifacts[pipeline.FormatJSON]

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = defaultOutput(opts.TreePath, fileExt(pipeline.FormatJSON))
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Laid out %s", opts.TreePath)
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	printFile(output)
	return nil
}
