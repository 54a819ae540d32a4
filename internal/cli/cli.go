// Package cli implements the techtree command-line interface.
//
// # Commands
//
//   - layers: validate a tree file and print its layers
//   - layout: compute positions and write the snapshot JSON
//   - render: write DOT, SVG or snapshot JSON
//   - play: explore and complete a tree interactively in the terminal
//   - serve: run the session HTTP API
//   - cache: manage the local layout cache
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/techtree/pkg/buildinfo"
	"github.com/matzehuels/techtree/pkg/cache"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "techtree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. Caller reporting follows debug.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Techtree lays out and plays dependency-gated tech trees",
		Long:         `Techtree reads a tech tree file, arranges its nodes into layers, and tracks which nodes are completed, locked, or available.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layersCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.playCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/techtree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// defaultOutput derives "<input base>.<ext>" next to the input file.
func defaultOutput(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + ext
}

// =============================================================================
// Shared Flags
// =============================================================================

// viewFlags are the viewport, geometry and completion flags shared by
// layout, render and play.
type viewFlags struct {
	width, height float64
	geometry      layout.Config
	done          []string
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", pipeline.DefaultWidth, "viewport width in pixels")
	cmd.Flags().Float64Var(&f.height, "height", pipeline.DefaultHeight, "viewport height in pixels")
	cmd.Flags().Float64Var(&f.geometry.NodeWidth, "node-width", 0, "node box width (default: tree file or 136)")
	cmd.Flags().Float64Var(&f.geometry.NodeHeight, "node-height", 0, "node box height (default: tree file or 44)")
	cmd.Flags().Float64Var(&f.geometry.NodeGap, "node-gap", 0, "horizontal gap between boxes (default: tree file or 30)")
	cmd.Flags().Float64Var(&f.geometry.LayerPadding, "layer-padding", 0, "top and bottom padding (default: tree file or 34)")
	cmd.Flags().StringSliceVar(&f.done, "done", nil, "node ids to mark completed, in order")
}

// options builds pipeline options for input from the flags.
func (f *viewFlags) options(input string, logger *log.Logger) pipeline.Options {
	return pipeline.Options{
		TreePath: input,
		Done:     f.done,
		Width:    f.width,
		Height:   f.height,
		Config:   f.geometry,
		Logger:   logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

// loadError prefixes load failures with the input path.
func loadError(input string, err error) error {
	return fmt.Errorf("load %s: %w", input, err)
}
