package suggest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/quocvuong92/cmd-sage/internal/ai"
	"github.com/quocvuong92/cmd-sage/internal/api"
	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/executor"
	"github.com/quocvuong92/cmd-sage/internal/logging"
	"github.com/quocvuong92/cmd-sage/internal/ui"
)

// Generator produces command suggestions and explanations.
type Generator interface {
	Suggest(ctx context.Context, target string, history []api.Message) (*api.Stream, error)
	Explain(ctx context.Context, command string) (*api.Stream, error)
}

// Renderer shows a stream and returns its raw text.
type Renderer interface {
	Render(stream display.FragmentStream, highlight display.Highlighter) (string, error)
}

// Prompter asks the user for input.
type Prompter interface {
	Text(label string, validate func(string) error) (string, error)
	Select(label string, choices []ui.Choice, def int) (string, error)
}

// ShellRunner runs a command with the terminal attached.
type ShellRunner interface {
	Run(ctx context.Context, command string) (executor.Outcome, error)
}

// ClipboardWriter copies text to the clipboard.
type ClipboardWriter interface {
	Copy(text string) error
}

// Loop is one suggestion session. All collaborators are required except
// Progress and the highlighters.
type Loop struct {
	Generator Generator
	Renderer  Renderer
	Prompter  Prompter
	Shell     ShellRunner
	Clipboard ClipboardWriter
	Out       io.Writer

	// Target selects the command family: shell, git or gh.
	Target string
	// DefaultAction, when set, is taken instead of prompting. A
	// non-terminal default is taken for the first decision only.
	DefaultAction Action

	CommandHighlighter display.Highlighter
	ExplainHighlighter display.Highlighter

	// Progress starts an indicator and returns the function that stops it.
	Progress func(message string) (stop func())

	// Warn reports a non-fatal problem to the user.
	Warn func(message string)
}

// Result is the state the session ended in.
type Result struct {
	History  []api.Message
	Action   Action
	Command  string
	ExitCode int
}

// Run starts a session for request and loops until a terminal action.
// On error the returned Result still holds the last consistent history.
func (l *Loop) Run(ctx context.Context, request string) (*Result, error) {
	history := []api.Message{{Role: api.RoleUser, Content: request}}

	reply, err := l.generate(ctx, history)
	if err != nil {
		return &Result{}, err
	}
	history = append(history, api.Message{Role: api.RoleAssistant, Content: reply})

	res := &Result{History: history, Command: CleanCommand(reply)}
	useDefault := l.DefaultAction != ""

	for {
		action, err := l.choose(useDefault)
		if err != nil {
			return res, err
		}
		if !action.Terminal() {
			useDefault = false
		}
		res.Action = action
		logging.Debug("action selected", logging.Fields{"action": string(action), "turns": len(res.History)})

		switch action {
		case Run:
			outcome, err := l.Shell.Run(ctx, res.Command)
			res.ExitCode = outcome.ExitCode
			return res, err

		case Copy:
			if err := l.Clipboard.Copy(res.Command); err != nil {
				l.warn(err.Error())
			} else {
				fmt.Fprintln(l.Out, "Copied to clipboard.")
			}
			return res, nil

		case Cancel:
			fmt.Fprintln(l.Out, "Cancelled.")
			return res, nil

		case Revise:
			revision, err := l.Prompter.Text("How would you like to revise the command?", ui.NonEmpty("revision cannot be empty"))
			if err != nil {
				return res, err
			}
			next := make([]api.Message, len(res.History), len(res.History)+2)
			copy(next, res.History)
			next = append(next, api.Message{Role: api.RoleUser, Content: revision})

			reply, err := l.generate(ctx, next)
			if err != nil {
				return res, err
			}
			res.History = append(next, api.Message{Role: api.RoleAssistant, Content: reply})
			res.Command = CleanCommand(reply)

		case Explain:
			if err := l.explain(ctx, res.Command); err != nil {
				return res, err
			}
		}
	}
}

func (l *Loop) choose(useDefault bool) (Action, error) {
	if useDefault {
		return l.DefaultAction, nil
	}
	value, err := l.Prompter.Select("What would you like to do?", actionChoices(), 0)
	if err != nil {
		return "", err
	}
	return ParseAction(value)
}

// generate streams one suggestion for history and returns its raw text.
func (l *Loop) generate(ctx context.Context, history []api.Message) (string, error) {
	stop := l.progress("Thinking...")
	stream, err := l.Generator.Suggest(ctx, l.Target, history)
	stop()
	if err != nil {
		return "", err
	}
	defer func() { _ = stream.Close() }()

	fmt.Fprintln(l.Out)
	text, err := l.Renderer.Render(stream, l.CommandHighlighter)
	fmt.Fprint(l.Out, "\n\n")
	if err != nil {
		return "", err
	}
	if CleanCommand(text) == "" {
		return "", &ai.AIServiceError{Message: "the model returned an empty command"}
	}
	return text, nil
}

func (l *Loop) explain(ctx context.Context, command string) error {
	stop := l.progress("Explaining...")
	stream, err := l.Generator.Explain(ctx, command)
	stop()
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	_, err = l.Renderer.Render(stream, l.ExplainHighlighter)
	fmt.Fprint(l.Out, "\n\n")
	return err
}

func (l *Loop) progress(message string) func() {
	if l.Progress == nil {
		return func() {}
	}
	return l.Progress(message)
}

func (l *Loop) warn(message string) {
	if l.Warn != nil {
		l.Warn(message)
		return
	}
	fmt.Fprintln(l.Out, "Warning: "+message)
}

// CleanCommand strips a markdown code fence and surrounding blank space
// from a model reply.
func CleanCommand(reply string) string {
	s := strings.TrimSpace(reply)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
