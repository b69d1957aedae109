package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/quocvuong92/cmd-sage/internal/auth"
	"github.com/quocvuong92/cmd-sage/internal/config"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

// isolate points every config and state lookup at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, k := range []string{config.EnvProvider, config.EnvModel, config.EnvDefaultAction, config.EnvTheme} {
		t.Setenv(k, "")
	}
	return dir
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewApp().newRootCmd()

	want := []string{"suggest", "explain", "configure", "models", "login", "logout", "status"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}

	suggestCmd, _, _ := root.Find([]string{"suggest"})
	for _, flag := range []string{"target", "action"} {
		if suggestCmd.Flags().Lookup(flag) == nil {
			t.Errorf("suggest has no --%s flag", flag)
		}
	}
}

func TestSuggest_RejectsBadFlagsBeforePrompting(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown target", []string{"suggest", "-t", "fish", "list files"}, `unknown target "fish"`},
		{"unknown action", []string{"suggest", "-a", "delete", "list files"}, `unknown action "delete"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			root := NewApp().newRootCmd()
			root.SetArgs(tt.args)
			root.SetOut(&bytes.Buffer{})

			err := root.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Execute() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvProvider, "openai")

	app := &App{model: "gpt-4.1"}
	cfg, err := app.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider != "openai" || cfg.Model != "gpt-4.1" {
		t.Errorf("config = %s/%s, want openai/gpt-4.1", cfg.Provider, cfg.Model)
	}

	app.provider = "anthropic"
	cfg, _ = app.loadConfig()
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want the flag to win over env", cfg.Provider)
	}
}

func TestShowStatus_NeverPrintsSecrets(t *testing.T) {
	dir := t.TempDir()
	now := time.UnixMilli(1_700_000_000_000)
	store := credentials.NewStore(filepath.Join(dir, "credentials.json"))

	if err := store.Set(provider.OpenAI, credentials.APIKey{Secret: "sk-very-secret"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(provider.GitHubCopilot, credentials.OAuth{
		AccessToken:      "tid=copilot-secret",
		RefreshToken:     "gho_secret",
		ExpiresAtEpochMs: now.UnixMilli() - 1,
	}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := showStatus(&out, config.NewConfig(), store, now); err != nil {
		t.Fatalf("showStatus() error = %v", err)
	}
	got := out.String()

	for _, secret := range []string{"sk-very-secret", "copilot-secret", "gho_secret"} {
		if strings.Contains(got, secret) {
			t.Errorf("status output leaks %q", secret)
		}
	}
	for _, want := range []string{"openai:", "API key", "github-copilot:", "token expired", "anthropic:", "not configured"} {
		if !strings.Contains(got, want) {
			t.Errorf("status output missing %q:\n%s", want, got)
		}
	}
}

func TestShowStatus_NoCredentialsFile(t *testing.T) {
	store := credentials.NewStore(filepath.Join(t.TempDir(), "credentials.json"))

	var out bytes.Buffer
	if err := showStatus(&out, config.NewConfig(), store, time.Now()); err != nil {
		t.Fatalf("showStatus() error = %v", err)
	}
	if strings.Count(out.String(), "not configured") != len(provider.DefaultRegistry().IDs()) {
		t.Errorf("every provider should be unconfigured:\n%s", out.String())
	}
}

func TestLogout(t *testing.T) {
	store := credentials.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err := store.Set(provider.Anthropic, credentials.APIKey{Secret: "sk-ant"}); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := logout(&out, store, provider.Anthropic); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Removed the credential for anthropic") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := logout(&out, store, provider.Anthropic); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No credential stored for anthropic") {
		t.Errorf("output = %q", out.String())
	}
}

func TestDeviceLogin(t *testing.T) {
	var opened []string
	orig := openBrowser
	openBrowser = func(url string) { opened = append(opened, url) }
	t.Cleanup(func() { openBrowser = orig })

	mux := http.NewServeMux()
	mux.HandleFunc("/login/device/code", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"device_code":      "dev-1",
			"user_code":        "WXYZ-0000",
			"verification_uri": "https://github.com/login/device",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_user", "token_type": "bearer"})
	})
	mux.HandleFunc("/copilot_internal/v2/token", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "token gho_user" {
			t.Errorf("Authorization = %q, want the GitHub token", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"token": "tid=copilot", "expires_at": 1_800_000_000})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	flow := auth.NewDeviceFlow(
		auth.WithEndpoint(oauth2.Endpoint{
			DeviceAuthURL: srv.URL + "/login/device/code",
			TokenURL:      srv.URL + "/login/oauth/access_token",
			AuthStyle:     oauth2.AuthStyleInParams,
		}),
		auth.WithHTTPClient(srv.Client()),
	)
	exchanger := auth.NewCopilotExchangerWithURL(srv.URL+"/copilot_internal/v2/token", srv.Client())

	var out bytes.Buffer
	cred, err := deviceLogin(context.Background(), &out, flow, exchanger)
	if err != nil {
		t.Fatalf("deviceLogin() error = %v", err)
	}

	want := credentials.OAuth{AccessToken: "tid=copilot", RefreshToken: "gho_user", ExpiresAtEpochMs: 1_800_000_000_000}
	if cred != want {
		t.Errorf("credential = %+v, want %+v", cred, want)
	}
	if !strings.Contains(out.String(), "WXYZ-0000") {
		t.Errorf("user code not shown: %q", out.String())
	}
	if len(opened) != 1 || opened[0] != "https://github.com/login/device" {
		t.Errorf("opened = %q", opened)
	}
}

func TestDeviceLogin_DeniedIsCredentialsError(t *testing.T) {
	orig := openBrowser
	openBrowser = func(string) {}
	t.Cleanup(func() { openBrowser = orig })

	mux := http.NewServeMux()
	mux.HandleFunc("/login/device/code", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"device_code": "dev-1", "user_code": "X", "verification_uri": "https://github.com/login/device",
			"expires_in": 60, "interval": 1,
		})
	})
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "access_denied"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	flow := auth.NewDeviceFlow(
		auth.WithEndpoint(oauth2.Endpoint{
			DeviceAuthURL: srv.URL + "/login/device/code",
			TokenURL:      srv.URL + "/login/oauth/access_token",
			AuthStyle:     oauth2.AuthStyleInParams,
		}),
		auth.WithHTTPClient(srv.Client()),
	)

	_, err := deviceLogin(context.Background(), &bytes.Buffer{}, flow, auth.NewCopilotExchangerWithURL(srv.URL, srv.Client()))
	var ce *credentials.CredentialsError
	if !errors.As(err, &ce) || ce.Provider != provider.GitHubCopilot {
		t.Fatalf("deviceLogin() error = %v, want github-copilot CredentialsError", err)
	}
	if !errors.Is(err, auth.ErrAccessDenied) {
		t.Errorf("error %v does not wrap ErrAccessDenied", err)
	}
}
