// Package executor carries out the terminal actions of a suggestion:
// running it in the user's shell or copying it to the clipboard.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/quocvuong92/cmd-sage/internal/logging"
)

// ActionError reports a terminal action that could not be carried out.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Outcome is how a shell command finished.
type Outcome struct {
	ExitCode int
}

// Shell runs commands through the user's login shell with the terminal
// attached.
type Shell struct {
	Path   string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// OnRisk, when set, is told about destructive commands before they run.
	OnRisk func(Risk)
}

// NewShell returns a shell on $SHELL (or /bin/sh) using the process stdio.
func NewShell() *Shell {
	path := os.Getenv("SHELL")
	if path == "" {
		path = "/bin/sh"
	}
	return &Shell{Path: path, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (s *Shell) command(ctx context.Context, text string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", text)
	}
	return exec.CommandContext(ctx, s.Path, "-c", text)
}

// Run executes text and waits for it. A non-zero exit is reported in the
// Outcome, not as an error; errors mean the command could not be run.
func (s *Shell) Run(ctx context.Context, text string) (Outcome, error) {
	if risk := Assess(text); risk.Level == Destructive && s.OnRisk != nil {
		s.OnRisk(risk)
	}

	cmd := s.command(ctx, text)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	logging.Debug("running command", logging.Fields{"shell": cmd.Path, "command": text})
	err := cmd.Run()
	if err == nil {
		return Outcome{}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return Outcome{ExitCode: exitErr.ExitCode()}, nil
	}
	if ctx.Err() != nil {
		return Outcome{ExitCode: -1}, &ActionError{Action: "run", Err: ctx.Err()}
	}
	return Outcome{ExitCode: -1}, &ActionError{Action: "run", Err: err}
}

// Clipboard writes text to the system clipboard.
type Clipboard struct {
	write func(string) error
}

var errNoClipboard = errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")

// NewClipboard returns the platform clipboard.
func NewClipboard() *Clipboard {
	return &Clipboard{write: func(text string) error {
		if clipboard.Unsupported {
			return errNoClipboard
		}
		return clipboard.WriteAll(text)
	}}
}

func (c *Clipboard) Copy(text string) error {
	if err := c.write(text); err != nil {
		return &ActionError{Action: "copy", Err: err}
	}
	return nil
}
