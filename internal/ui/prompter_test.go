package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/peterh/liner"
)

type scriptedReader struct {
	lines   []string
	err     error
	prompts *[]string
	closed  *int
}

func (r *scriptedReader) next(prompt string) (string, error) {
	*r.prompts = append(*r.prompts, prompt)
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) Prompt(p string) (string, error)         { return r.next(p) }
func (r *scriptedReader) PasswordPrompt(p string) (string, error) { return r.next(p) }
func (r *scriptedReader) Close() error                            { *r.closed++; return nil }

type harness struct {
	*LinePrompter
	out     *bytes.Buffer
	prompts []string
	opened  int
	closed  int
}

func newHarness(err error, lines ...string) *harness {
	h := &harness{out: &bytes.Buffer{}}
	shared := &scriptedReader{lines: lines, err: err, prompts: &h.prompts, closed: &h.closed}
	h.LinePrompter = &LinePrompter{
		out: h.out,
		open: func() lineReader {
			h.opened++
			return shared
		},
	}
	return h
}

func TestText_RepromptsUntilValid(t *testing.T) {
	h := newHarness(nil, "   ", "", "list files")

	got, err := h.Text("What would you like to do?", NonEmpty("prompt cannot be empty"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "list files" {
		t.Errorf("Text() = %q", got)
	}
	if len(h.prompts) != 3 {
		t.Errorf("prompted %d times, want 3", len(h.prompts))
	}
	if strings.Count(h.out.String(), "prompt cannot be empty") != 2 {
		t.Errorf("validation output = %q", h.out.String())
	}
	if h.opened != h.closed {
		t.Errorf("opened %d line editors but closed %d", h.opened, h.closed)
	}
}

func TestReadLine_AbortMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"ctrl-c", liner.ErrPromptAborted, ErrAborted},
		{"eof", io.EOF, ErrAborted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(tt.err)
			if _, err := h.Text("q", nil); !errors.Is(err, tt.want) {
				t.Errorf("Text() error = %v, want %v", err, tt.want)
			}
		})
	}

	h := newHarness(errors.New("tty gone"))
	if _, err := h.Password("key"); err == nil || errors.Is(err, ErrAborted) {
		t.Errorf("Password() error = %v, want a read error", err)
	}
}

var actions = []Choice{
	{Value: "run", Label: "Run"},
	{Value: "revise", Label: "Revise"},
	{Value: "explain", Label: "Explain"},
	{Value: "copy", Label: "Copy"},
	{Value: "cancel", Label: "Cancel"},
}

func TestMatchChoice(t *testing.T) {
	tests := []struct {
		input string
		def   int
		want  int
		ok    bool
	}{
		{"", 0, 0, true},
		{"", -1, 0, false},
		{"3", 0, 2, true},
		{"0", 0, 0, false},
		{"6", 0, 0, false},
		{"copy", 0, 3, true},
		{"EXPLAIN", 0, 2, true},
		{"ru", 0, 0, true},
		{"re", 0, 1, true},
		{"ca", 0, 4, true},
		{"c", 0, 0, false},
		{"zzz", 0, -1, false},
	}
	for _, tt := range tests {
		got, ok := matchChoice(actions, tt.input, tt.def)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("matchChoice(%q, %d) = %d, %v; want %d, %v", tt.input, tt.def, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSelect(t *testing.T) {
	h := newHarness(nil, "nope", "2")
	got, err := h.Select("What would you like to do?", actions, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "revise" {
		t.Errorf("Select() = %q, want revise", got)
	}
	if !strings.Contains(h.out.String(), "5) Cancel") {
		t.Errorf("choices not listed: %q", h.out.String())
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		lines []string
		def   bool
		want  bool
	}{
		{[]string{""}, true, true},
		{[]string{""}, false, false},
		{[]string{"maybe", "y"}, false, true},
		{[]string{"No"}, true, false},
	}
	for _, tt := range tests {
		h := newHarness(nil, tt.lines...)
		got, err := h.Confirm("Save?", tt.def)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Confirm(%q, %v) = %v, want %v", tt.lines, tt.def, got, tt.want)
		}
	}
}

func TestSuggestionsFor(t *testing.T) {
	items := []Item{{Text: "gpt-4o-mini"}, {Text: "gpt-4.1"}, {Text: "claude-3-5-haiku-latest"}}

	got := suggestionsFor(items, "4O")
	if len(got) != 1 || got[0].Text != "gpt-4o-mini" {
		t.Errorf("suggestionsFor(4O) = %+v", got)
	}
	if all := suggestionsFor(items, ""); len(all) != 3 {
		t.Errorf("empty word should list everything, got %d", len(all))
	}
}
