// Package models keeps a local copy of the models.dev catalog and answers
// which models a provider offers.
package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ModelInfo describes one model in the catalog.
type ModelInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Attachment  bool        `json:"attachment"`
	Reasoning   bool        `json:"reasoning"`
	Temperature bool        `json:"temperature"`
	ToolCall    bool        `json:"tool_call"`
	Knowledge   string      `json:"knowledge,omitempty"`
	ReleaseDate string      `json:"release_date,omitempty"`
	LastUpdated string      `json:"last_updated,omitempty"`
	OpenWeights bool        `json:"open_weights"`
	Modalities  *Modalities `json:"modalities,omitempty"`
	Cost        *Cost       `json:"cost,omitempty"`
	Limit       Limit       `json:"limit"`
	Status      string      `json:"status,omitempty"`
}

type Modalities struct {
	Input  []string `json:"input"`
	Output []string `json:"output"`
}

// Cost is in USD per million tokens.
type Cost struct {
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
	CacheRead  float64 `json:"cache_read,omitempty"`
	CacheWrite float64 `json:"cache_write,omitempty"`
}

// Limit holds token limits; zero means unknown.
type Limit struct {
	Context int64 `json:"context"`
	Input   int64 `json:"input,omitempty"`
	Output  int64 `json:"output"`
}

// ProviderInfo is one provider entry of the catalog.
type ProviderInfo struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Env    []string             `json:"env,omitempty"`
	API    string               `json:"api,omitempty"`
	Doc    string               `json:"doc,omitempty"`
	Models map[string]ModelInfo `json:"models"`
}

// Catalog maps provider id to its entry.
type Catalog map[string]ProviderInfo

// Decode parses and validates a catalog document.
func Decode(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the fields callers rely on: every provider has a name and
// a models mapping, and every model has an id and a name.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	for key, p := range c {
		if p.Name == "" {
			return fmt.Errorf("provider %q has no name", key)
		}
		if p.Models == nil {
			return fmt.Errorf("provider %q has no models mapping", key)
		}
		for id, m := range p.Models {
			if m.ID == "" || m.Name == "" {
				return fmt.Errorf("provider %q model %q is missing id or name", key, id)
			}
		}
	}
	return nil
}

// ModelsFor returns provider's models sorted by id, or an empty slice when
// the catalog does not list the provider.
func (c Catalog) ModelsFor(provider string) []ModelInfo {
	p, ok := c[provider]
	if !ok {
		return []ModelInfo{}
	}
	out := make([]ModelInfo, 0, len(p.Models))
	for _, m := range p.Models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DisplayName returns the catalog's name for provider, or fallback.
func (c Catalog) DisplayName(provider, fallback string) string {
	if p, ok := c[provider]; ok && p.Name != "" {
		return p.Name
	}
	return fallback
}
