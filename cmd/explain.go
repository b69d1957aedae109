package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/cmd-sage/internal/ui"
)

func (app *App) newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "explain [command...]",
		Aliases: []string{"e"},
		Short:   "Explain what a command does",
		Long: `Explain what a command does, part by part.

Examples:
  cmd-sage explain "find . -name '*.log' -mtime +7 -delete"
  cmd-sage explain git rebase -i HEAD~3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runExplain(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (app *App) runExplain(ctx context.Context, command string) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}

	if strings.TrimSpace(command) == "" {
		command, err = ui.NewLinePrompter().Text("Enter the command you want to explain:", ui.NonEmpty("enter a command"))
		if err != nil {
			return err
		}
	}

	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	stop := progress("Explaining...")
	stream, err := svc.Explain(ctx, command)
	stop()
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	fmt.Println()
	_, err = newRenderer().Render(stream, markdownHighlighter())
	fmt.Println()
	return err
}
