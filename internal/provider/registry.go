// Package provider resolves a provider id and its credential into the
// metadata a backend needs to call that provider.
//
// The set of providers is closed and lives in a lookup table built at
// startup. Resolution performs no I/O.
package provider

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quocvuong92/cmd-sage/internal/auth"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
)

// Supported provider ids.
const (
	OpenAI        = "openai"
	Anthropic     = "anthropic"
	Google        = "google"
	GitHubModels  = "github-models"
	GitHubCopilot = "github-copilot"
)

// Family selects the wire protocol a backend speaks.
type Family int

const (
	FamilyOpenAI Family = iota
	FamilyAnthropic
	FamilyGoogle
	// FamilyOpenAICompatible is the chat completions protocol at a custom
	// base URL, possibly with extra client headers.
	FamilyOpenAICompatible
)

func (f Family) String() string {
	switch f {
	case FamilyOpenAI:
		return "openai"
	case FamilyAnthropic:
		return "anthropic"
	case FamilyGoogle:
		return "google"
	case FamilyOpenAICompatible:
		return "openai-compatible"
	default:
		return "unknown"
	}
}

// Descriptor is the static capability record for one provider.
type Descriptor struct {
	ID          string
	DisplayName string
	Family      Family
	// Auth is the credential kind the provider accepts.
	Auth credentials.Kind
	// BaseURL is empty when the SDK default applies.
	BaseURL string
	Headers map[string]string
}

// Registry maps provider ids to descriptors.
type Registry struct {
	byID map[string]Descriptor
}

// NewRegistry builds a registry from descriptors. Later duplicates win.
func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{byID: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.byID[d.ID] = d
	}
	return r
}

// DefaultRegistry returns the providers cmd-sage ships with.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Descriptor{ID: OpenAI, DisplayName: "OpenAI", Family: FamilyOpenAI, Auth: credentials.KindAPIKey},
		Descriptor{ID: Anthropic, DisplayName: "Anthropic", Family: FamilyAnthropic, Auth: credentials.KindAPIKey},
		Descriptor{ID: Google, DisplayName: "Google", Family: FamilyGoogle, Auth: credentials.KindAPIKey},
		Descriptor{
			ID:          GitHubModels,
			DisplayName: "GitHub Models",
			Family:      FamilyOpenAICompatible,
			Auth:        credentials.KindAPIKey,
			BaseURL:     "https://models.github.ai/inference",
		},
		Descriptor{
			ID:          GitHubCopilot,
			DisplayName: "GitHub Copilot",
			Family:      FamilyOpenAICompatible,
			Auth:        credentials.KindOAuth,
			BaseURL:     auth.CopilotBaseURL,
			Headers:     auth.CopilotHeaders(),
		},
	)
}

// IDs returns the supported provider ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id string) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// UnknownProviderError reports a provider id outside the supported set.
type UnknownProviderError struct {
	Provider  string
	Supported []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q (supported: %s)", e.Provider, strings.Join(e.Supported, ", "))
}

// MissingAPIKeyError reports that no usable secret was supplied for a
// provider: none stored, an empty value, or a credential of the wrong kind.
type MissingAPIKeyError struct {
	Provider string
	Reason   string
}

func (e *MissingAPIKeyError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no credential configured for provider %q", e.Provider)
	}
	return fmt.Sprintf("no usable credential for provider %q: %s", e.Provider, e.Reason)
}

// Handle is a resolved provider bound to its secret.
type Handle struct {
	desc   Descriptor
	secret string
}

// Target is everything a backend needs for one generation call.
type Target struct {
	Provider string
	Family   Family
	Model    string
	BaseURL  string
	Secret   string
	Headers  map[string]string
}

// Resolve validates id and cred and returns a Handle. A nil cred means none
// is stored.
func (r *Registry) Resolve(id string, cred credentials.Credential) (*Handle, error) {
	desc, ok := r.byID[id]
	if !ok {
		return nil, &UnknownProviderError{Provider: id, Supported: r.IDs()}
	}

	var secret string
	switch c := cred.(type) {
	case nil:
		return nil, &MissingAPIKeyError{Provider: id}
	case credentials.APIKey:
		if desc.Auth != credentials.KindAPIKey {
			return nil, &MissingAPIKeyError{Provider: id, Reason: "provider requires OAuth login, found an API key"}
		}
		secret = c.Secret
	case credentials.OAuth:
		if desc.Auth != credentials.KindOAuth {
			return nil, &MissingAPIKeyError{Provider: id, Reason: "provider requires an API key, found an OAuth token"}
		}
		secret = c.AccessToken
	default:
		return nil, &MissingAPIKeyError{Provider: id, Reason: fmt.Sprintf("unsupported credential type %T", c)}
	}

	if strings.TrimSpace(secret) == "" {
		return nil, &MissingAPIKeyError{Provider: id, Reason: "stored secret is empty"}
	}
	return &Handle{desc: desc, secret: secret}, nil
}

// Descriptor returns the provider record behind h.
func (h *Handle) Descriptor() Descriptor { return h.desc }

// Target binds h to model.
func (h *Handle) Target(model string) Target {
	headers := make(map[string]string, len(h.desc.Headers))
	for k, v := range h.desc.Headers {
		headers[k] = v
	}
	return Target{
		Provider: h.desc.ID,
		Family:   h.desc.Family,
		Model:    model,
		BaseURL:  h.desc.BaseURL,
		Secret:   h.secret,
		Headers:  headers,
	}
}
