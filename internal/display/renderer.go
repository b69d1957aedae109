package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/quocvuong92/cmd-sage/internal/logging"
)

// StreamError reports a stream that failed after it started producing text.
// Whatever was already written stays on screen.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream interrupted: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// FragmentStream is a single-use sequence of text fragments.
type FragmentStream interface {
	Next() bool
	Current() string
	Err() error
}

// Renderer echoes a stream as it arrives and, when Redraw is set, replaces
// the raw echo with a highlighted rendering once the stream ends.
type Renderer struct {
	Out io.Writer
	// Redraw enables the cursor-up/erase pass. Leave it off when Out is not
	// a terminal.
	Redraw bool
	// Width is the terminal width used to count soft-wrapped rows. Zero
	// counts newlines only.
	Width int
}

var (
	cursorUp  = fmt.Sprintf(termenv.CSI+termenv.CursorUpSeq, 1)
	eraseLine = termenv.CSI + termenv.EraseEntireLineSeq
)

// Render consumes stream, returning the raw accumulated text.
func (r *Renderer) Render(stream FragmentStream, highlight Highlighter) (string, error) {
	var acc strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		acc.WriteString(chunk)
		if _, err := io.WriteString(r.Out, chunk); err != nil {
			return acc.String(), &StreamError{Err: err}
		}
	}
	text := acc.String()
	if err := stream.Err(); err != nil {
		return text, &StreamError{Err: err}
	}

	if !r.Redraw || highlight == nil {
		return text, nil
	}

	highlighted, err := highlight(text)
	if err != nil {
		logging.Debug("highlighting failed, keeping raw output", logging.Fields{"error": err.Error()})
		return text, nil
	}

	// One write so the raw output never shows without its replacement.
	var out strings.Builder
	out.WriteString(clearSequence(r.rowsAbove(text)))
	out.WriteString(highlighted)
	if _, err := io.WriteString(r.Out, out.String()); err != nil {
		return text, &StreamError{Err: err}
	}
	return text, nil
}

// rowsAbove counts the terminal rows between the start of text and the line
// the cursor is on after writing it.
func (r *Renderer) rowsAbove(text string) int {
	lines := strings.Split(text, "\n")
	rows := len(lines) - 1
	if r.Width <= 0 {
		return rows
	}
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > r.Width {
			rows += (w - 1) / r.Width
		}
	}
	return rows
}

// clearSequence erases the current row and the n rows above it, leaving the
// cursor at the start of the topmost one.
func clearSequence(n int) string {
	var b strings.Builder
	b.WriteString("\r")
	b.WriteString(eraseLine)
	for i := 0; i < n; i++ {
		b.WriteString(cursorUp)
		b.WriteString("\r")
		b.WriteString(eraseLine)
	}
	return b.String()
}
