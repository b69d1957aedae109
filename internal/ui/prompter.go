// Package ui holds the interactive prompts: line input, passwords, choice
// selection and confirmation, plus a completion-driven picker.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

// ErrAborted is returned when the user interrupts a prompt with Ctrl+C or
// closes input.
var ErrAborted = errors.New("input aborted")

// Choice is one option of a selection prompt.
type Choice struct {
	Value string
	Label string
}

// lineReader is the part of *liner.State the prompter uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
	Close() error
}

// LinePrompter asks questions one line at a time. A fresh line editor is
// opened per question and closed before returning, so the terminal is back
// in cooked mode while commands run.
type LinePrompter struct {
	out  io.Writer
	open func() lineReader
}

// NewLinePrompter returns a prompter on the process terminal.
func NewLinePrompter() *LinePrompter {
	return &LinePrompter{
		out: os.Stdout,
		open: func() lineReader {
			l := liner.NewLiner()
			l.SetCtrlCAborts(true)
			return l
		},
	}
}

func (p *LinePrompter) readLine(label string, password bool) (string, error) {
	r := p.open()
	defer func() { _ = r.Close() }()

	var (
		line string
		err  error
	)
	if password {
		line, err = r.PasswordPrompt(label)
	} else {
		line, err = r.Prompt(label)
	}
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return line, nil
}

// NonEmpty rejects blank input with message.
func NonEmpty(message string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(message)
		}
		return nil
	}
}

// Text asks for a line of text, repeating until validate accepts it. A nil
// validate accepts anything.
func (p *LinePrompter) Text(label string, validate func(string) error) (string, error) {
	for {
		line, err := p.readLine(label+" ", false)
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if validate == nil {
			return line, nil
		}
		if verr := validate(line); verr != nil {
			fmt.Fprintf(p.out, "  %v\n", verr)
			continue
		}
		return line, nil
	}
}

// Password asks for a secret without echo.
func (p *LinePrompter) Password(label string) (string, error) {
	line, err := p.readLine(label+" ", true)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Select lists choices and returns the chosen value. The user may type the
// number, the value, or an unambiguous prefix of either value or label.
// Empty input picks choices[def] when def is in range.
func (p *LinePrompter) Select(label string, choices []Choice, def int) (string, error) {
	if len(choices) == 0 {
		return "", errors.New("no choices to select from")
	}

	fmt.Fprintln(p.out, label)
	for i, c := range choices {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(p.out, " %s %d) %s\n", marker, i+1, c.Label)
	}

	for {
		line, err := p.readLine("> ", false)
		if err != nil {
			return "", err
		}
		idx, ok := matchChoice(choices, line, def)
		if ok {
			return choices[idx].Value, nil
		}
		fmt.Fprintf(p.out, "  enter a number between 1 and %d\n", len(choices))
	}
}

func matchChoice(choices []Choice, input string, def int) (int, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return def, def >= 0 && def < len(choices)
	}
	if n, err := strconv.Atoi(input); err == nil {
		return n - 1, n >= 1 && n <= len(choices)
	}

	match := -1
	for i, c := range choices {
		value, label := strings.ToLower(c.Value), strings.ToLower(c.Label)
		if input == value || input == label {
			return i, true
		}
		if strings.HasPrefix(value, input) || strings.HasPrefix(label, input) {
			if match >= 0 {
				return 0, false
			}
			match = i
		}
	}
	return match, match >= 0
}

// Confirm asks a yes/no question.
func (p *LinePrompter) Confirm(label string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		line, err := p.readLine(fmt.Sprintf("%s %s ", label, hint), false)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}
