package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/models"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

func (app *App) newModelsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "models [provider]",
		Short: "List the models a provider offers",
		Long: `List the models a provider offers, with their context and output limits.

The catalog is cached locally for 24 hours. Without an argument the
configured provider is listed.

Examples:
  cmd-sage models
  cmd-sage models anthropic
  cmd-sage models --refresh`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}

			providerID, current := cfg.Provider, cfg.Model
			if len(args) == 1 && args[0] != cfg.Provider {
				providerID, current = args[0], ""
			}

			cache, err := newModelCache()
			if err != nil {
				return err
			}
			return listModels(cmd.Context(), cmd.OutOrStdout(), cache, providerID, current, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the catalog even if the cached copy is fresh")
	return cmd
}

func listModels(ctx context.Context, out io.Writer, cache *models.Cache, providerID, current string, refresh bool) error {
	registry := provider.DefaultRegistry()
	desc, ok := registry.Lookup(providerID)
	if !ok {
		return &provider.UnknownProviderError{Provider: providerID, Supported: registry.IDs()}
	}

	sp := display.NewSpinner("Loading model catalog...")
	sp.Start()
	catalog, err := cache.Catalog(ctx, refresh)
	sp.Stop()
	if err != nil {
		return err
	}

	list := catalog.ModelsFor(providerID)
	name := catalog.DisplayName(providerID, desc.DisplayName)
	if len(list) == 0 {
		fmt.Fprintf(out, "The catalog lists no models for %s.\n", name)
		return nil
	}
	display.ShowModels(out, name, list, current)
	return nil
}
