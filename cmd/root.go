package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/logging"
)

// App holds the flags shared by every command
type App struct {
	verbose  bool
	provider string
	model    string
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{}
}

// Execute runs the root command and exits with the resulting status
func Execute() {
	app := NewApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := app.newRootCmd().ExecuteContext(ctx)
	stop()

	os.Exit(handleError(err))
}

func (app *App) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Turn plain-language requests into shell, git and gh commands",
		Long: `cmd-sage asks an AI model for the command that does what you describe,
shows it with syntax highlighting, and lets you run, revise, explain or copy it.

Supports OpenAI, Anthropic, Google, GitHub Models and GitHub Copilot.

Examples:
  cmd-sage configure
  cmd-sage suggest "list all files including hidden ones"
  cmd-sage suggest -t git "undo the last commit but keep the changes"
  cmd-sage suggest -t gh -a copy "open pull requests assigned to me"
  cmd-sage explain "tar -xzvf archive.tar.gz"`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if app.verbose {
				logging.SetLevel(logging.LevelDebug)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&app.provider, "provider", "", "Provider id for this run (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&app.model, "model", "m", "", "Model id for this run (overrides config)")

	rootCmd.AddCommand(app.newSuggestCmd())
	rootCmd.AddCommand(app.newExplainCmd())
	rootCmd.AddCommand(app.newConfigureCmd())
	rootCmd.AddCommand(app.newModelsCmd())
	rootCmd.AddCommand(app.newLoginCmd())
	rootCmd.AddCommand(app.newLogoutCmd())
	rootCmd.AddCommand(app.newStatusCmd())

	return rootCmd
}

// loadConfig reads the config and applies the --provider and --model flags.
func (app *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if app.provider != "" {
		cfg.Provider = app.provider
	}
	if app.model != "" {
		cfg.Model = app.model
	}
	logging.Debug("config loaded", logging.Fields{"path": cfg.Path, "provider": cfg.Provider, "model": cfg.Model})
	return cfg, nil
}
