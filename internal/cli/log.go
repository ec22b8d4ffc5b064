// Package cli implements the viewgrid command-line interface.
//
// This package provides commands for rendering a composite of one subject
// image in a group of views, serving the grid over an HTTP control API,
// browsing it in the terminal and editing the persisted view groups. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Compose a group of views into PNG, JPEG or JSON state
//   - serve: Run the HTTP control API over a live grid
//   - browse: Drive the grid from an interactive terminal UI
//   - groups: List and edit the persisted view groups
//   - config: Show, locate or initialise the config file
//   - cache: Manage the image cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports every layout, fetch and cache event.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger printing "15:04:05.00" timestamps to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the duration of one command step.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and a "took" field rounded to
// the millisecond.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
