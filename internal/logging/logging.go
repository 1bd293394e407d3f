// Package logging configures the process-wide slog logger. Administrative
// commands log to stderr so stdout stays parseable.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init configures the process-wide default slog logger.
func Init(verbose bool) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, verbose)))
}

// NewHandler builds the text handler used by Init. Warn-and-above by
// default; verbose lowers the threshold to Debug.
func NewHandler(w io.Writer, verbose bool) slog.Handler {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}
