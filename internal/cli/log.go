package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/techtree/pkg/techtree"
)

// newLogger writes timestamped lines to w. At debug level it also reports
// the calling file, which is what --verbose is for.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level <= log.DebugLevel,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// logLoaded reports a finished tree load with its shape and the time since
// start.
func logLoaded(l *log.Logger, path string, e *techtree.Engine, start time.Time) {
	g := e.Graph()
	l.Info("Loaded tree",
		"path", path,
		"nodes", g.Len(),
		"layers", len(g.Layers()),
		"done", len(e.Completed()),
		"took", time.Since(start).Round(time.Millisecond),
	)
}
