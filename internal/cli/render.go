package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	view     viewFlags
	output   string // output file (single format) or base path (several)
	formats  string // comma-separated output formats
	detailed bool   // add layer and state to node labels
	noCache  bool   // skip the cache entirely
	refresh  bool   // recompute but still write the cache
	watch    bool   // re-render whenever the input changes
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a tech tree to SVG, DOT or snapshot JSON",
		Long: `Render a tech tree to SVG, DOT or snapshot JSON.

Nodes are drawn at their computed positions and styled by state: completed,
locked, goal, optional or required. Pass --done to render a tree partway
through.`,
		Example: `  techtree render civ.json
  techtree render civ.toml -f svg,dot --done fire,stone
  techtree render civ.json -f json -o - --refresh
  techtree render civ.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(opts.formats)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], formats, &opts)
		},
	}

	opts.view.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show layer and state in node labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the input file changes")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, formats []string, opts *renderOpts) error {
	if opts.output == "-" && (len(formats) > 1 || opts.watch) {
		return fmt.Errorf("stdout output takes a single format and no --watch")
	}

	if err := c.renderOnce(ctx, input, formats, opts, "Rendering"); err != nil {
		if !opts.watch {
			return err
		}
		printError("%v", err)
	}
	if !opts.watch {
		return nil
	}

	printInfo("Watching %s for changes (ctrl+c to stop)", input)
	return watchFile(ctx, input, watchDebounce, c.Logger, func() {
		if err := c.renderOnce(ctx, input, formats, opts, "Re-rendering"); err != nil && ctx.Err() == nil {
			printError("%v", err)
		}
	})
}

// renderOnce runs the pipeline and writes its artifacts. verb labels the
// spinner ("Rendering", "Re-rendering").
func (c *CLI) renderOnce(ctx context.Context, input string, formats []string, opts *renderOpts, verb string) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	popts := opts.view.options(input, c.Logger)
	popts.Formats = formats
	popts.Detailed = opts.detailed
	popts.Refresh = opts.refresh

	toStdout := opts.output == "-"
	spinner := newSpinner(ctx, os.Stderr, verb+" "+filepath.Base(input)+"...")
	if !toStdout {
		spinner.Start()
	}
	result, err := runner.Execute(ctx, popts)
	if spinner.Cancelled() {
		spinner.Stop()
		return ctx.Err()
	}
	if err != nil {
		if toStdout {
			spinner.Stop()
		} else {
			spinner.StopWithError("Could not render " + input)
		}
		return loadError(input, err)
	}

	if toStdout {
		spinner.Stop()
		_, err := os.Stdout.Write(result.Artifacts[formats[0]])
		return err
	}

	paths := outputPaths(input, opts.output, formats)
	spinner.Update(fmt.Sprintf("Writing %d file(s)...", len(formats)))
	for _, f := range formats {
		if err := os.WriteFile(paths[f], result.Artifacts[f], 0o644); err != nil {
			spinner.StopWithError("Could not write " + paths[f])
			return fmt.Errorf("write %s: %w", paths[f], err)
		}
	}

	spinner.StopWithSuccess("Rendered " + input)
	printStats(result.Stats, result.CacheInfo.RenderHit)
	for _, f := range formats {
		printFile(paths[f])
	}
	return nil
}

// outputPaths maps each format to its file. A single format writes to
// output as given; several formats share output as a base path with a known
// extension stripped. Without output, files go next to the input.
func outputPaths(input, output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}

	base := strings.TrimSuffix(input, filepath.Ext(input))
	if output != "" {
		base = output
		if ext := filepath.Ext(output); pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			base = strings.TrimSuffix(output, ext)
		}
	}
	for _, f := range formats {
		paths[f] = base + "." + fileExt(f)
	}
	return paths
}

// fileExt keeps snapshot JSON from overwriting a JSON tree file.
func fileExt(format string) string {
	if format == pipeline.FormatJSON {
		return "layout.json"
	}
	return format
}
