// Package constants provides shared constants used across the application
// to avoid circular dependencies between packages.
package constants

import "time"

// AppName names the binary and the per-user config and state directories.
const AppName = "cmd-sage"

// Timeout constants used across the application
const (
	// DefaultAPITimeout bounds a whole generation request, streaming included
	DefaultAPITimeout = 120 * time.Second
	// DefaultOAuthTimeout is the timeout for OAuth HTTP requests
	DefaultOAuthTimeout = 30 * time.Second
	// DefaultCatalogTimeout is the timeout for fetching the model catalog
	DefaultCatalogTimeout = 30 * time.Second
)

// Model catalog
const (
	// ModelsCatalogURL serves a single JSON document keyed by provider id
	ModelsCatalogURL = "https://models.dev/api.json"
	// ModelsCacheMaxAge is how long a fetched catalog is considered fresh
	ModelsCacheMaxAge = 24 * time.Hour
)

// File names inside the config and state directories
const (
	ConfigFileName      = "config.yaml"
	CredentialsFileName = "credentials.json"
	ModelsCacheFileName = "models-cache.json"
)

// Application defaults
const (
	DefaultProvider = "github-copilot"
	DefaultModel    = "gpt-4o-mini"
	DefaultTarget   = "shell"
	DefaultTheme    = "github-dark"
	// DefaultMaxTokens is required by providers that refuse an unbounded response
	DefaultMaxTokens = 1024
)
