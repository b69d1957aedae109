package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/executor"
	"github.com/quocvuong92/cmd-sage/internal/suggest"
	"github.com/quocvuong92/cmd-sage/internal/ui"
)

func (app *App) newSuggestCmd() *cobra.Command {
	var target, action string

	cmd := &cobra.Command{
		Use:     "suggest [request...]",
		Aliases: []string{"s"},
		Short:   "Suggest a command for a task described in plain language",
		Long: `Suggest a command for a task described in plain language.

The suggestion streams in, is highlighted once complete, and you choose what
to do with it: run it, revise it with more instructions, have it explained,
copy it to the clipboard, or cancel.

Examples:
  cmd-sage suggest "find files larger than 100MB"
  cmd-sage suggest -t git "squash the last three commits"
  cmd-sage suggest -a copy "show disk usage by directory"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runSuggest(cmd.Context(), strings.Join(args, " "), target, action)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Command family: shell, git or gh (default from config)")
	cmd.Flags().StringVarP(&action, "action", "a", "", "Take this action without prompting: run, revise, explain, copy or cancel")
	return cmd
}

func (app *App) runSuggest(ctx context.Context, request, target, action string) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}

	if target == "" {
		target = cfg.Target
	}
	if !slices.Contains(config.Targets, target) {
		return fmt.Errorf("unknown target %q (want one of %s)", target, strings.Join(config.Targets, ", "))
	}

	if action == "" {
		action = cfg.DefaultAction
	}
	var defaultAction suggest.Action
	if action != "" {
		if defaultAction, err = suggest.ParseAction(action); err != nil {
			return err
		}
	}

	prompter := ui.NewLinePrompter()
	if strings.TrimSpace(request) == "" {
		request, err = prompter.Text(fmt.Sprintf("What %s command would you like?", targetNoun(target)), ui.NonEmpty("describe the command you want"))
		if err != nil {
			return err
		}
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	loop := &suggest.Loop{
		Generator:          svc,
		Renderer:           newRenderer(),
		Prompter:           prompter,
		Shell:              newShell(),
		Clipboard:          executor.NewClipboard(),
		Out:                os.Stdout,
		Target:             target,
		DefaultAction:      defaultAction,
		CommandHighlighter: display.CodeHighlighter("bash", cfg.Theme),
		ExplainHighlighter: markdownHighlighter(),
		Progress:           progress,
		Warn:               display.ShowWarning,
	}

	res, err := loop.Run(ctx, request)
	if err != nil {
		return err
	}
	if res.Action == suggest.Run && res.ExitCode != 0 {
		return &exitStatus{code: res.ExitCode}
	}
	return nil
}

func targetNoun(target string) string {
	if target == "gh" {
		return "GitHub CLI"
	}
	return target
}
