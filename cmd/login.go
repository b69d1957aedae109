package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/cmd-sage/internal/auth"
	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

// openBrowser is replaced in tests.
var openBrowser = display.TryOpenBrowser

// newLoginCmd creates the login command
func (app *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with GitHub Copilot",
		Long: `Authenticate with GitHub Copilot using device flow.

This will open a browser window where you can authorize the application.
The GitHub token is stored locally and used to renew the Copilot token
whenever it expires.

Examples:
  cmd-sage login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// newLogoutCmd creates the logout command
func (app *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout [provider]",
		Short: "Remove a stored credential",
		Long: `Remove the stored credential for a provider.

Without an argument the configured provider is used.

Examples:
  cmd-sage logout
  cmd-sage logout openai`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := app.provider
			if len(args) == 1 {
				providerID = args[0]
			}
			if providerID == "" {
				cfg, err := app.loadConfig()
				if err != nil {
					return err
				}
				providerID = cfg.Provider
			}
			return runLogout(cmd.OutOrStdout(), providerID)
		},
	}
}

// newStatusCmd creates the status command
func (app *App) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and authentication status",
		Long: `Show the configured provider and model, and which providers have a
stored credential. Secrets are never printed.

Examples:
  cmd-sage status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			store, err := newStore()
			if err != nil {
				return err
			}
			return showStatus(cmd.OutOrStdout(), cfg, store, time.Now())
		},
	}
}

func runLogin(ctx context.Context, out io.Writer) error {
	store, err := newStore()
	if err != nil {
		return err
	}

	rec, err := store.GetAll()
	if err != nil {
		return err
	}
	if _, ok := rec[provider.GitHubCopilot]; ok {
		fmt.Fprintln(out, "Already logged in to GitHub Copilot.")
		fmt.Fprintln(out, "Run 'cmd-sage logout github-copilot' first if you want to re-authenticate.")
		return nil
	}

	cred, err := deviceLogin(ctx, out, auth.NewDeviceFlow(), auth.NewCopilotExchanger())
	if err != nil {
		return err
	}
	if err := store.Set(provider.GitHubCopilot, cred); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Successfully logged in to GitHub Copilot!")
	fmt.Fprintln(out, "Run 'cmd-sage configure' to make it the default provider.")
	return nil
}

// deviceLogin runs the GitHub device flow and exchanges the resulting token
// for a Copilot token. The GitHub token is kept as the refresh token.
func deviceLogin(ctx context.Context, out io.Writer, flow *auth.DeviceFlow, exchanger *auth.CopilotExchanger) (credentials.OAuth, error) {
	fail := func(err error) (credentials.OAuth, error) {
		return credentials.OAuth{}, &credentials.CredentialsError{Provider: provider.GitHubCopilot, Op: "login", Err: err}
	}

	fmt.Fprintln(out, "Requesting device code from GitHub...")
	code, err := flow.Start(ctx)
	if err != nil {
		return fail(err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To authenticate, please:")
	fmt.Fprintf(out, "  1. Open: %s\n", code.VerificationURI)
	fmt.Fprintf(out, "  2. Enter code: %s\n", code.UserCode)
	fmt.Fprintln(out)

	openBrowser(code.VerificationURI)

	sp := display.NewSpinner("Waiting for authorization...")
	sp.Start()
	defer sp.Stop()

	githubToken, err := flow.Wait(ctx, code)
	if err != nil {
		return fail(fmt.Errorf("authentication failed: %w", err))
	}

	sp.UpdateMessage("Fetching Copilot token...")
	tok, err := exchanger.Exchange(ctx, githubToken)
	if err != nil {
		return fail(err)
	}

	return credentials.OAuth{
		AccessToken:      tok.Token,
		RefreshToken:     githubToken,
		ExpiresAtEpochMs: tok.ExpiresAt * 1000,
	}, nil
}

func runLogout(out io.Writer, providerID string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	return logout(out, store, providerID)
}

func logout(out io.Writer, store *credentials.Store, providerID string) error {
	removed, err := store.Delete(providerID)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(out, "No credential stored for %s.\n", providerID)
		return nil
	}
	fmt.Fprintf(out, "Removed the credential for %s.\n", providerID)
	return nil
}

func showStatus(out io.Writer, cfg *config.Config, store *credentials.Store, now time.Time) error {
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Provider:       %s\n", cfg.Provider)
	fmt.Fprintf(out, "  Model:          %s\n", cfg.Model)
	fmt.Fprintf(out, "  Target:         %s\n", cfg.Target)
	defaultAction := cfg.DefaultAction
	if defaultAction == "" {
		defaultAction = "none (ask every time)"
	}
	fmt.Fprintf(out, "  Default action: %s\n", defaultAction)
	if cfg.Path != "" {
		fmt.Fprintf(out, "  Config file:    %s\n", cfg.Path)
	} else {
		fmt.Fprintln(out, "  Config file:    none, run 'cmd-sage configure' to create one")
	}

	rec, err := store.Load()
	if errors.Is(err, credentials.ErrNotConfigured) {
		rec, err = credentials.Record{}, nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Credentials:")
	fmt.Fprintln(out)
	for _, id := range provider.DefaultRegistry().IDs() {
		fmt.Fprintf(out, "  %-15s %s\n", id+":", describeCredential(rec[id], now))
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Stored at: %s\n", store.Path())
	return nil
}

func describeCredential(c credentials.Credential, now time.Time) string {
	switch c := c.(type) {
	case nil:
		return "not configured"
	case credentials.APIKey:
		return "API key"
	case credentials.OAuth:
		if c.Expired(now) {
			return "OAuth (token expired, renews on next use)"
		}
		return fmt.Sprintf("OAuth (token valid until %s)", c.ExpiresAt().Local().Format("15:04"))
	default:
		return string(c.Kind())
	}
}
