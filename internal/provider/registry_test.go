package provider

import (
	"errors"
	"testing"

	"github.com/quocvuong92/cmd-sage/internal/credentials"
)

func validCredential(t *testing.T, r *Registry, id string) credentials.Credential {
	t.Helper()
	d, ok := r.Lookup(id)
	if !ok {
		t.Fatalf("Lookup(%q) failed", id)
	}
	switch d.Auth {
	case credentials.KindAPIKey:
		return credentials.APIKey{Secret: "secret-" + id}
	case credentials.KindOAuth:
		return credentials.OAuth{AccessToken: "secret-" + id, RefreshToken: "r", ExpiresAtEpochMs: 1}
	}
	t.Fatalf("unexpected auth kind %q", d.Auth)
	return nil
}

func TestResolve_AllSupportedProviders(t *testing.T) {
	r := DefaultRegistry()
	want := []string{Anthropic, GitHubCopilot, GitHubModels, Google, OpenAI}

	ids := r.IDs()
	if len(ids) != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}

	for i, id := range ids {
		if id != want[i] {
			t.Errorf("IDs()[%d] = %q, want %q", i, id, want[i])
		}
		t.Run(id, func(t *testing.T) {
			h, err := r.Resolve(id, validCredential(t, r, id))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			target := h.Target("some-model")
			if target.Provider != id || target.Model != "some-model" {
				t.Errorf("Target() = %+v", target)
			}
			if target.Secret != "secret-"+id {
				t.Errorf("Target().Secret = %q", target.Secret)
			}
		})
	}
}

func TestResolve_UnknownProvider(t *testing.T) {
	for _, id := range []string{"", "azure", "OpenAI", "github"} {
		t.Run(id, func(t *testing.T) {
			_, err := DefaultRegistry().Resolve(id, credentials.APIKey{Secret: "k"})
			var upe *UnknownProviderError
			if !errors.As(err, &upe) {
				t.Fatalf("Resolve(%q) error = %v, want *UnknownProviderError", id, err)
			}
			if upe.Provider != id {
				t.Errorf("Provider = %q, want %q", upe.Provider, id)
			}
		})
	}
}

func TestResolve_MissingAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		cred     credentials.Credential
	}{
		{"nothing stored", OpenAI, nil},
		{"empty key", Anthropic, credentials.APIKey{Secret: ""}},
		{"whitespace key", Google, credentials.APIKey{Secret: "  "}},
		{"api key for oauth provider", GitHubCopilot, credentials.APIKey{Secret: "ghp_x"}},
		{"oauth for api key provider", GitHubModels, credentials.OAuth{AccessToken: "a", RefreshToken: "r"}},
		{"empty access token", GitHubCopilot, credentials.OAuth{RefreshToken: "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultRegistry().Resolve(tt.provider, tt.cred)
			var mke *MissingAPIKeyError
			if !errors.As(err, &mke) {
				t.Fatalf("Resolve() error = %v, want *MissingAPIKeyError", err)
			}
			if mke.Provider != tt.provider {
				t.Errorf("Provider = %q, want %q", mke.Provider, tt.provider)
			}
		})
	}
}

func TestHandle_CopilotTargetCarriesHeaders(t *testing.T) {
	r := DefaultRegistry()
	h, err := r.Resolve(GitHubCopilot, credentials.OAuth{AccessToken: "tid=1", RefreshToken: "gho"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	a := h.Target("gpt-4o-mini")
	if a.Family != FamilyOpenAICompatible {
		t.Errorf("Family = %v, want openai-compatible", a.Family)
	}
	if a.BaseURL != "https://api.githubcopilot.com" {
		t.Errorf("BaseURL = %q", a.BaseURL)
	}
	if a.Headers["Copilot-Integration-Id"] == "" {
		t.Error("Copilot target missing client identification headers")
	}

	// Targets must not share header maps.
	a.Headers["X-Test"] = "1"
	if b := h.Target("gpt-4o"); b.Headers["X-Test"] != "" {
		t.Error("Target() header map is shared between calls")
	}
}
