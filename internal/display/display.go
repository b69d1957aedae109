// Package display renders streamed model output and user-facing messages
// in the terminal.
package display

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/quocvuong92/cmd-sage/internal/models"
)

var (
	stdout = termenv.NewOutput(os.Stdout)
	stderr = termenv.NewOutput(os.Stderr)
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of stdout, or 0 when unknown.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// MarkdownStyle picks the glamour style matching the terminal background.
func MarkdownStyle() string {
	if !IsTerminal(os.Stdout) {
		return "notty"
	}
	if stdout.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func styled(out *termenv.Output, color, prefix, msg string) string {
	return out.String(prefix).Foreground(out.Color(color)).Bold().String() + " " + msg
}

// ShowError prints an error message to stderr.
func ShowError(msg string) {
	fmt.Fprintln(stderr, styled(stderr, "1", "Error:", msg))
}

// ShowHint prints a remediation hint under an error.
func ShowHint(msg string) {
	fmt.Fprintln(stderr, stderr.String("  "+msg).Faint().String())
}

// ShowWarning prints a warning to stderr.
func ShowWarning(msg string) {
	fmt.Fprintln(stderr, styled(stderr, "3", "Warning:", msg))
}

// ShowInfo prints an informational line to stdout.
func ShowInfo(msg string) {
	fmt.Fprintln(stdout, styled(stdout, "6", "›", msg))
}

// ShowSuccess prints a confirmation line to stdout.
func ShowSuccess(msg string) {
	fmt.Fprintln(stdout, styled(stdout, "2", "✓", msg))
}

// ShowModels lists catalog models for a provider, marking current.
func ShowModels(w io.Writer, providerName string, list []models.ModelInfo, current string) {
	fmt.Fprintf(w, "%s (%d models)\n", providerName, len(list))
	if len(list) == 0 {
		fmt.Fprintln(w, "  no models listed in the catalog")
		return
	}

	idWidth := 0
	for _, m := range list {
		if len(m.ID) > idWidth {
			idWidth = len(m.ID)
		}
	}

	for _, m := range list {
		marker := " "
		if m.ID == current {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %-*s  %-10s %-10s %s\n", marker, idWidth, m.ID,
			formatTokens(m.Limit.Context), formatTokens(m.Limit.Output), m.Name)
	}
}

func formatTokens(n int64) string {
	switch {
	case n <= 0:
		return "-"
	case n >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1fM", float64(n)/1_000_000))
	case n >= 1_000:
		return trimZero(fmt.Sprintf("%.1fk", float64(n)/1_000))
	default:
		return fmt.Sprintf("%d", n)
	}
}

func trimZero(s string) string {
	return strings.Replace(s, ".0", "", 1)
}

// TryOpenBrowser opens url in the default browser. Failures are ignored;
// the caller always prints the URL as well.
func TryOpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
