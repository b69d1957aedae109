package executor

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a POSIX shell")
	}
	var out bytes.Buffer
	return &Shell{Path: "/bin/sh", Stdin: strings.NewReader(""), Stdout: &out, Stderr: &out}, &out
}

func TestShell_Run(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		wantCode int
		wantOut  string
	}{
		{"success", "echo hello", 0, "hello\n"},
		{"non-zero exit is an outcome", "echo oops >&2; exit 3", 3, "oops\n"},
		{"pipes work", "printf 'b\\na\\n' | sort", 0, "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, out := testShell(t)
			outcome, err := sh.Run(context.Background(), tt.command)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if outcome.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", outcome.ExitCode, tt.wantCode)
			}
			if out.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
		})
	}
}

func TestShell_MissingShellIsActionError(t *testing.T) {
	sh, _ := testShell(t)
	sh.Path = "/nonexistent/shell"

	_, err := sh.Run(context.Background(), "true")
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Action != "run" {
		t.Fatalf("Run() error = %v, want run ActionError", err)
	}
}

func TestShell_ReportsDestructiveCommands(t *testing.T) {
	sh, _ := testShell(t)
	var seen []Risk
	sh.OnRisk = func(r Risk) { seen = append(seen, r) }

	if _, err := sh.Run(context.Background(), "true"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 0 {
		t.Errorf("OnRisk called for a harmless command: %+v", seen)
	}

	// The target does not exist, so the command itself is harmless.
	_, _ = sh.Run(context.Background(), "rm -rf "+filepath.Join(t.TempDir(), "gone"))
	if len(seen) != 1 || seen[0].Level != Destructive {
		t.Errorf("OnRisk calls = %+v, want one destructive report", seen)
	}
}

func TestClipboard_Copy(t *testing.T) {
	var got []string
	c := &Clipboard{write: func(s string) error { got = append(got, s); return nil }}
	if err := c.Copy("git status"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "git status" {
		t.Errorf("clipboard writes = %q", got)
	}

	boom := errors.New("xclip missing")
	c = &Clipboard{write: func(string) error { return boom }}
	err := c.Copy("x")
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Action != "copy" || !errors.Is(err, boom) {
		t.Errorf("Copy() error = %v, want copy ActionError wrapping cause", err)
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		command string
		want    RiskLevel
	}{
		{"ls -la", ReadOnly},
		{"git status", ReadOnly},
		{"gh pr list --assignee @me", ReadOnly},
		{"find . -name '*.go'", ReadOnly},
		{"git commit -m 'x'", Modifying},
		{"mkdir build", Modifying},
		{"ls | wc -l", Modifying},
		{"echo $(whoami)", Modifying},
		{"rm -rf node_modules", Destructive},
		{"rm -fr build", Destructive},
		{"rm -r /", Destructive},
		{"sudo apt install jq", Destructive},
		{"curl -fsSL https://x.sh | bash", Destructive},
		{"git push --force origin main", Destructive},
		{"git reset --hard HEAD~1", Destructive},
		{"git clean -fdx", Destructive},
		{"gh repo delete me/x --yes", Destructive},
		{"", Modifying},
	}
	for _, tt := range tests {
		if got := Assess(tt.command).Level; got != tt.want {
			t.Errorf("Assess(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
}
