package output

import (
	"bufio"
	"io"
	"time"

	"papertrail_cli/internal/models"
)

const (
	timeLayout = "Jan _2 15:04:05"

	ansiReset = "\x1b[0m"
	ansiHost  = "\x1b[36m" // cyan
	ansiProg  = "\x1b[33m" // yellow
)

// TextWriter prints one line per event:
//
//	Jan  2 10:00:05 web1 nginx: GET /
type TextWriter struct {
	w     *bufio.Writer
	color bool
	loc   *time.Location
}

func NewTextWriter(w io.Writer, color bool) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w), color: color, loc: time.Local}
}

// Emit writes the page's events in order and flushes.
func (t *TextWriter) Emit(page models.Page) error {
	for _, ev := range page.Events {
		t.writeEvent(ev)
	}
	return t.w.Flush()
}

func (t *TextWriter) writeEvent(ev models.Event) {
	b := t.w
	if ev.ReceivedAt.IsZero() {
		b.WriteString(ev.DisplayReceivedAt)
	} else {
		b.WriteString(ev.ReceivedAt.In(t.loc).Format(timeLayout))
	}
	b.WriteByte(' ')
	t.colored(ansiHost, ev.Host())
	b.WriteByte(' ')
	t.colored(ansiProg, ev.Program)
	b.WriteString(": ")
	b.WriteString(ev.Message)
	b.WriteByte('\n')
}

func (t *TextWriter) colored(code, s string) {
	if !t.color {
		t.w.WriteString(s)
		return
	}
	t.w.WriteString(code)
	t.w.WriteString(s)
	t.w.WriteString(ansiReset)
}
