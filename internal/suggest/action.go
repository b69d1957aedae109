// Package suggest drives the suggestion conversation: generate a command,
// let the user act on it, and loop on revisions and explanations until a
// terminal action ends the session.
package suggest

import (
	"fmt"
	"strings"

	"github.com/quocvuong92/cmd-sage/internal/ui"
)

// Action is what the user does with the current command.
type Action string

const (
	Run     Action = "run"
	Revise  Action = "revise"
	Explain Action = "explain"
	Copy    Action = "copy"
	Cancel  Action = "cancel"
)

// Actions lists every action in menu order.
var Actions = []Action{Run, Revise, Explain, Copy, Cancel}

// Terminal reports whether a ends the loop.
func (a Action) Terminal() bool {
	return a == Run || a == Copy || a == Cancel
}

func (a Action) label() string {
	return strings.ToUpper(string(a[:1])) + string(a[1:])
}

// ParseAction parses a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q (valid: run, revise, explain, copy, cancel)", s)
}

func actionChoices() []ui.Choice {
	choices := make([]ui.Choice, len(Actions))
	for i, a := range Actions {
		choices[i] = ui.Choice{Value: string(a), Label: a.label()}
	}
	return choices
}
