package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quocvuong92/cmd-sage/internal/ai"
	"github.com/quocvuong92/cmd-sage/internal/auth"
	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/executor"
	"github.com/quocvuong92/cmd-sage/internal/models"
	"github.com/quocvuong92/cmd-sage/internal/provider"
	"github.com/quocvuong92/cmd-sage/internal/ui"
)

// Process exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// exitStatus carries the exit code of a command the user chose to run.
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string { return fmt.Sprintf("command exited with status %d", e.code) }

// handleError reports err to the user and returns the process exit code.
func handleError(err error) int {
	return reportError(os.Stdout, err)
}

func reportError(out io.Writer, err error) int {
	if err == nil {
		return exitOK
	}

	var status *exitStatus
	if errors.As(err, &status) {
		return status.code
	}

	if isInterrupt(err) {
		fmt.Fprintln(out, "\nCancelled.")
		return exitInterrupted
	}

	title, hint := describe(err)
	display.ShowError(fmt.Sprintf("%s: %v", title, err))
	if hint != "" {
		display.ShowHint(hint)
	}
	return exitFailure
}

func isInterrupt(err error) bool {
	return errors.Is(err, ui.ErrAborted) || errors.Is(err, context.Canceled)
}

// describe names the kind of err and suggests how to fix it.
func describe(err error) (title, hint string) {
	var (
		cfgErr     *config.ConfigError
		credErr    *credentials.CredentialsError
		unknownErr *provider.UnknownProviderError
		keyErr     *provider.MissingAPIKeyError
		fetchErr   *models.ModelsFetchError
		aiErr      *ai.AIServiceError
		streamErr  *display.StreamError
		actionErr  *executor.ActionError
	)

	switch {
	case errors.As(err, &aiErr):
		return "Generation failed", generationHint(aiErr)
	case errors.As(err, &streamErr):
		return "Response interrupted", "The connection dropped mid-response. Try again."
	case errors.As(err, &actionErr):
		if actionErr.Action == "copy" {
			return "Could not copy the command", "Install xclip, xsel or wl-clipboard, or copy the command by hand."
		}
		return "Could not run the command", "Check that $SHELL points at a working shell."
	case errors.As(err, &cfgErr):
		return "Configuration error", "Fix the file or run 'cmd-sage configure' to rewrite it."
	case errors.As(err, &unknownErr):
		return "Unknown provider", "Supported providers: " + strings.Join(provider.DefaultRegistry().IDs(), ", ") + "."
	case errors.As(err, &keyErr):
		return "Missing credential", fmt.Sprintf("Run 'cmd-sage configure' to store a credential for %s.", keyErr.Provider)
	case errors.As(err, &credErr):
		return "Credentials error", credentialsHint(err)
	case errors.As(err, &fetchErr):
		return "Could not load the model catalog", "Check your network connection and retry with 'cmd-sage models --refresh'."
	default:
		return "Error", ""
	}
}

func generationHint(err *ai.AIServiceError) string {
	var (
		keyErr     *provider.MissingAPIKeyError
		credErr    *credentials.CredentialsError
		unknownErr *provider.UnknownProviderError
	)
	switch {
	case errors.As(err, &keyErr):
		return fmt.Sprintf("Run 'cmd-sage configure' to store a credential for %s.", keyErr.Provider)
	case errors.As(err, &credErr):
		return credentialsHint(err)
	case errors.As(err, &unknownErr):
		return "Run 'cmd-sage configure' to pick a supported provider."
	default:
		return "Run 'cmd-sage status' to check the provider, model and stored credentials."
	}
}

func credentialsHint(err error) string {
	switch {
	case errors.Is(err, auth.ErrGitHubTokenRevoked), errors.Is(err, credentials.ErrNoRefreshToken):
		return "Run 'cmd-sage login' to sign in to GitHub Copilot again."
	case errors.Is(err, credentials.ErrNotConfigured):
		return "Run 'cmd-sage configure' to set up a provider."
	default:
		return "Run 'cmd-sage configure' to store a new credential."
	}
}
