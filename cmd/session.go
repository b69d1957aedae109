package cmd

import (
	"fmt"
	"os"

	"github.com/quocvuong92/cmd-sage/internal/ai"
	"github.com/quocvuong92/cmd-sage/internal/auth"
	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/executor"
	"github.com/quocvuong92/cmd-sage/internal/models"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

// newStore opens the credentials file with the Copilot token refresher.
func newStore() (*credentials.Store, error) {
	path, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	return credentials.NewStore(path,
		credentials.WithRefresher(provider.GitHubCopilot, auth.NewCopilotExchanger()),
	), nil
}

func newModelCache() (*models.Cache, error) {
	path, err := models.DefaultPath()
	if err != nil {
		return nil, &models.ModelsFetchError{Message: "could not locate the catalog cache", Err: err}
	}
	return models.NewCache(path), nil
}

func newService(cfg *config.Config) (*ai.Service, error) {
	store, err := newStore()
	if err != nil {
		return nil, err
	}
	return ai.NewService(cfg.Provider, cfg.Model, store), nil
}

// newRenderer redraws only when stdout is a terminal.
func newRenderer() *display.Renderer {
	return &display.Renderer{
		Out:    os.Stdout,
		Redraw: display.IsTerminal(os.Stdout),
		Width:  display.TerminalWidth(),
	}
}

func markdownHighlighter() display.Highlighter {
	return display.MarkdownHighlighter(display.MarkdownStyle(), display.TerminalWidth())
}

func newShell() *executor.Shell {
	sh := executor.NewShell()
	sh.OnRisk = func(r executor.Risk) {
		display.ShowWarning(fmt.Sprintf("this command %s", r.Reason))
	}
	return sh
}

// progress starts a spinner and returns its stop function.
func progress(message string) func() {
	sp := display.NewSpinner(message)
	sp.Start()
	return sp.Stop
}
