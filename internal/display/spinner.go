package display

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner is a progress indicator on stderr. It is a no-op when stderr is
// not a terminal. Stop blocks until the animation goroutine has exited and
// the line is cleared, so output written afterwards is never interleaved.
type Spinner struct {
	mu      sync.Mutex
	s       *spinner.Spinner
	active  bool
	enabled bool
}

// NewSpinner returns a stopped spinner showing message.
func NewSpinner(message string) *Spinner {
	return newSpinner(os.Stderr, message, IsTerminal(os.Stderr))
}

func newSpinner(w io.Writer, message string, enabled bool) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	return &Spinner{s: s, enabled: enabled}
}

func (sp *Spinner) Start() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if !sp.enabled || sp.active {
		return
	}
	sp.s.Start()
	sp.active = true
}

// Stop halts the animation and clears its line. Safe to call repeatedly.
func (sp *Spinner) Stop() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if !sp.active {
		return
	}
	sp.s.Stop()
	sp.active = false
}

// UpdateMessage replaces the text shown next to the spinner.
func (sp *Spinner) UpdateMessage(message string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.s.Lock()
	sp.s.Suffix = " " + message
	sp.s.Unlock()
}
