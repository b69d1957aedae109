// Package credentials persists per-provider secrets and refreshes expired
// OAuth tokens on read.
//
// A Credential is either an APIKey or an OAuth token pair. Consumers switch on
// the concrete type; there is no shape with optional fields of both kinds.
package credentials

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Kind is the discriminator written to disk for each credential.
type Kind string

const (
	KindAPIKey Kind = "apiKey"
	KindOAuth  Kind = "oauth"
)

// Credential is implemented only by APIKey and OAuth.
type Credential interface {
	Kind() Kind
	sealed()
}

// APIKey is a static secret sent as a bearer token or API key header.
type APIKey struct {
	Secret string
}

func (APIKey) Kind() Kind { return KindAPIKey }
func (APIKey) sealed()    {}

// OAuth is a short-lived access token plus the token used to mint a new one.
type OAuth struct {
	AccessToken      string
	RefreshToken     string
	ExpiresAtEpochMs int64
}

func (OAuth) Kind() Kind { return KindOAuth }
func (OAuth) sealed()    {}

// Expired reports whether now is past the access token's expiry.
func (o OAuth) Expired(now time.Time) bool {
	return now.UnixMilli() > o.ExpiresAtEpochMs
}

// ExpiresAt returns the expiry as a time.
func (o OAuth) ExpiresAt() time.Time {
	return time.UnixMilli(o.ExpiresAtEpochMs)
}

// Record maps provider ids to their stored credential. Providers without a
// credential are absent.
type Record map[string]Credential

// Providers returns the record's provider ids in sorted order.
func (r Record) Providers() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

type wireCredential struct {
	Kind             Kind   `json:"kind"`
	Secret           string `json:"secret,omitempty"`
	AccessToken      string `json:"accessToken,omitempty"`
	RefreshToken     string `json:"refreshToken,omitempty"`
	ExpiresAtEpochMs int64  `json:"expiresAtEpochMs,omitempty"`
}

// MarshalJSON writes each credential with its "kind" tag.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]wireCredential, len(r))
	for id, c := range r {
		switch c := c.(type) {
		case APIKey:
			out[id] = wireCredential{Kind: KindAPIKey, Secret: c.Secret}
		case OAuth:
			out[id] = wireCredential{
				Kind:             KindOAuth,
				AccessToken:      c.AccessToken,
				RefreshToken:     c.RefreshToken,
				ExpiresAtEpochMs: c.ExpiresAtEpochMs,
			}
		case nil:
			continue
		default:
			return nil, fmt.Errorf("provider %s: unsupported credential type %T", id, c)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a record, rejecting unknown kinds.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in map[string]wireCredential
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	rec := make(Record, len(in))
	for id, w := range in {
		switch w.Kind {
		case KindAPIKey:
			rec[id] = APIKey{Secret: w.Secret}
		case KindOAuth:
			rec[id] = OAuth{
				AccessToken:      w.AccessToken,
				RefreshToken:     w.RefreshToken,
				ExpiresAtEpochMs: w.ExpiresAtEpochMs,
			}
		default:
			return fmt.Errorf("provider %s: unknown credential kind %q", id, w.Kind)
		}
	}
	*r = rec
	return nil
}
