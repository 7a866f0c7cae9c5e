// Package output writes search pages to a stream, either as formatted text
// lines or as one JSON document per page.
package output

import (
	"io"
	"os"

	"papertrail_cli/internal/service"

	"golang.org/x/term"
)

// New returns the emitter for the requested mode.
func New(mode service.OutputMode, w io.Writer, color bool) service.Emitter {
	if mode == service.OutputJSON {
		return NewJSONWriter(w)
	}
	return NewTextWriter(w, color)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
