package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/cmd-sage/internal/auth"
	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/display"
	"github.com/quocvuong92/cmd-sage/internal/logging"
	"github.com/quocvuong92/cmd-sage/internal/models"
	"github.com/quocvuong92/cmd-sage/internal/provider"
	"github.com/quocvuong92/cmd-sage/internal/ui"
)

const noDefaultAction = "none"

func (app *App) newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Choose a provider, credential, model and default action",
		Long: `Walk through choosing a provider, storing its credential, picking a
model from the catalog and setting the default action.

GitHub Copilot signs in through the browser; other providers take an API key.

Examples:
  cmd-sage configure`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd.Context())
		},
	}
}

func runConfigure(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.ConfigError
		if !errors.As(err, &cfgErr) {
			return err
		}
		display.ShowWarning(fmt.Sprintf("ignoring the current config: %v", err))
		cfg = config.NewConfig()
	}

	store, err := newStore()
	if err != nil {
		return err
	}
	rec, err := store.GetAll()
	if err != nil {
		return err
	}

	catalog := loadCatalogForSetup(ctx)
	registry := provider.DefaultRegistry()
	prompter := ui.NewLinePrompter()

	providerID, err := selectProvider(prompter, registry, catalog, cfg.Provider)
	if err != nil {
		return err
	}
	desc, _ := registry.Lookup(providerID)

	cred, err := obtainCredential(ctx, prompter, desc, rec[providerID])
	if err != nil {
		return err
	}

	currentModel := ""
	if providerID == cfg.Provider {
		currentModel = cfg.Model
	}
	model, err := pickModel(catalog.ModelsFor(providerID), currentModel)
	if err != nil {
		return err
	}

	defaultAction, err := selectDefaultAction(prompter, cfg.DefaultAction)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Provider:       %s\n", catalog.DisplayName(providerID, desc.DisplayName))
	fmt.Printf("  Model:          %s\n", model)
	fmt.Printf("  Default action: %s\n", orNone(defaultAction))
	fmt.Println()

	ok, err := prompter.Confirm("Save these settings?", true)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Nothing was saved.")
		return nil
	}

	if cred != nil {
		if err := store.Set(providerID, cred); err != nil {
			return err
		}
	}
	cfg.Provider = providerID
	cfg.Model = model
	cfg.DefaultAction = defaultAction
	path, err := config.Save(cfg)
	if err != nil {
		return err
	}

	display.ShowSuccess("Saved configuration to " + path)
	return nil
}

// loadCatalogForSetup returns an empty catalog when the fetch fails so that
// setup can continue with a typed model id.
func loadCatalogForSetup(ctx context.Context) models.Catalog {
	cache, err := newModelCache()
	if err != nil {
		display.ShowWarning(err.Error())
		return models.Catalog{}
	}

	stop := progress("Fetching model catalog...")
	catalog, err := cache.Catalog(ctx, false)
	stop()
	if err != nil {
		display.ShowWarning(fmt.Sprintf("model catalog unavailable, enter the model id by hand: %v", err))
		return models.Catalog{}
	}
	return catalog
}

func selectProvider(p *ui.LinePrompter, registry *provider.Registry, catalog models.Catalog, current string) (string, error) {
	ids := registry.IDs()
	choices := make([]ui.Choice, len(ids))
	def := 0
	for i, id := range ids {
		desc, _ := registry.Lookup(id)
		choices[i] = ui.Choice{Value: id, Label: fmt.Sprintf("%s (%s)", catalog.DisplayName(id, desc.DisplayName), id)}
		if id == current {
			def = i
		}
	}
	return p.Select("Select a provider:", choices, def)
}

// obtainCredential returns the credential to store, or nil to keep existing.
func obtainCredential(ctx context.Context, p *ui.LinePrompter, desc provider.Descriptor, existing credentials.Credential) (credentials.Credential, error) {
	switch desc.Auth {
	case credentials.KindOAuth:
		if _, ok := existing.(credentials.OAuth); ok {
			again, err := p.Confirm(fmt.Sprintf("Already signed in to %s. Sign in again?", desc.DisplayName), false)
			if err != nil || !again {
				return nil, err
			}
		}
		cred, err := deviceLogin(ctx, os.Stdout, auth.NewDeviceFlow(), auth.NewCopilotExchanger())
		if err != nil {
			return nil, err
		}
		return cred, nil

	case credentials.KindAPIKey:
		_, hasKey := existing.(credentials.APIKey)
		label := fmt.Sprintf("%s API key:", desc.DisplayName)
		if hasKey {
			label = fmt.Sprintf("%s API key (leave blank to keep the current key):", desc.DisplayName)
		}
		for {
			key, err := p.Password(label)
			if err != nil {
				return nil, err
			}
			if key != "" {
				return credentials.APIKey{Secret: key}, nil
			}
			if hasKey {
				return nil, nil
			}
			display.ShowWarning("an API key is required")
		}

	default:
		return nil, fmt.Errorf("provider %s uses unsupported credential kind %q", desc.ID, desc.Auth)
	}
}

func pickModel(list []models.ModelInfo, current string) (string, error) {
	items := make([]ui.Item, len(list))
	for i, m := range list {
		items[i] = ui.Item{Text: m.ID, Description: m.Name}
	}

	def := current
	if def == "" && len(items) > 0 {
		def = items[0].Text
	}
	label := "Model:"
	if def != "" {
		label = fmt.Sprintf("Model [%s]:", def)
	}

	for {
		model, err := ui.PickWithCompletion(label, items, def)
		if err != nil {
			return "", err
		}
		if model == "" {
			display.ShowWarning("a model id is required")
			continue
		}
		if len(items) > 0 && !slices.ContainsFunc(items, func(it ui.Item) bool { return it.Text == model }) {
			logging.Debug("model not in catalog", logging.Fields{"model": model})
			display.ShowWarning(fmt.Sprintf("%s is not in the catalog; it will be used as typed", model))
		}
		return model, nil
	}
}

func selectDefaultAction(p *ui.LinePrompter, current string) (string, error) {
	names := append([]string{noDefaultAction}, config.ActionNames...)
	choices := make([]ui.Choice, len(names))
	def := 0
	for i, name := range names {
		choices[i] = ui.Choice{Value: name, Label: name}
		if name == current {
			def = i
		}
	}

	choice, err := p.Select("Default action after a suggestion:", choices, def)
	if err != nil {
		return "", err
	}
	if choice == noDefaultAction {
		return "", nil
	}
	return choice, nil
}

func orNone(s string) string {
	if s == "" {
		return noDefaultAction
	}
	return s
}
