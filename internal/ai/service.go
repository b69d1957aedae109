// Package ai is the single entry point for text generation. It resolves the
// configured provider, fetches (and if needed refreshes) its credential,
// and opens a stream. Every failure along the way comes back as an
// *AIServiceError.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/quocvuong92/cmd-sage/internal/api"
	"github.com/quocvuong92/cmd-sage/internal/credentials"
	"github.com/quocvuong92/cmd-sage/internal/logging"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

// AIServiceError wraps any failure of the generation pipeline.
type AIServiceError struct {
	Message string
	Cause   error
}

func (e *AIServiceError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *AIServiceError) Unwrap() error { return e.Cause }

// CredentialSource returns the stored credential for a provider, or nil
// when none is stored.
type CredentialSource interface {
	Get(ctx context.Context, provider string) (credentials.Credential, error)
}

// Streamer opens a completion stream against a resolved target.
type Streamer interface {
	Stream(ctx context.Context, target provider.Target, req api.Request) (*api.Stream, error)
}

// Service generates completions for one provider and model.
type Service struct {
	provider string
	model    string
	creds    CredentialSource
	registry *provider.Registry
	streamer Streamer
	log      *logging.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry overrides the provider registry.
func WithRegistry(r *provider.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithStreamer overrides the backend client.
func WithStreamer(st Streamer) Option {
	return func(s *Service) { s.streamer = st }
}

// NewService returns a service bound to providerID and model.
func NewService(providerID, model string, creds CredentialSource, opts ...Option) *Service {
	s := &Service{
		provider: providerID,
		model:    model,
		creds:    creds,
		registry: provider.DefaultRegistry(),
		streamer: api.NewClient(),
		log:      logging.With(logging.Fields{"component": "ai", "provider": providerID, "model": model}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Provider() string { return s.provider }

func (s *Service) Model() string { return s.model }

// Generate streams a reply to history under systemPrompt. history must start
// with a user turn.
func (s *Service) Generate(ctx context.Context, systemPrompt string, history []api.Message) (*api.Stream, error) {
	if len(history) == 0 || history[0].Role != api.RoleUser {
		return nil, &AIServiceError{Message: "conversation must start with a user message"}
	}

	cred, err := s.creds.Get(ctx, s.provider)
	if err != nil {
		return nil, &AIServiceError{Message: fmt.Sprintf("could not load credentials for %s", s.provider), Cause: err}
	}

	handle, err := s.registry.Resolve(s.provider, cred)
	if err != nil {
		return nil, &AIServiceError{Message: fmt.Sprintf("provider %s is not usable", s.provider), Cause: err}
	}

	s.log.Debug("generating", logging.Fields{"turns": len(history)})
	stream, err := s.streamer.Stream(ctx, handle.Target(s.model), api.Request{System: systemPrompt, Messages: history})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, &AIServiceError{Message: "generation cancelled", Cause: err}
		}
		return nil, &AIServiceError{Message: "generation request failed", Cause: err}
	}
	return stream, nil
}

// Suggest streams a command for history using the prompt for target.
func (s *Service) Suggest(ctx context.Context, target string, history []api.Message) (*api.Stream, error) {
	return s.Generate(ctx, SuggestPrompt(target), history)
}

// Explain streams an explanation of command as a one-off conversation.
func (s *Service) Explain(ctx context.Context, command string) (*api.Stream, error) {
	return s.Generate(ctx, ExplainPrompt(), []api.Message{{Role: api.RoleUser, Content: command}})
}
