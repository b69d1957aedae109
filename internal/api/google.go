package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/quocvuong92/cmd-sage/internal/provider"
)

func (c *Client) streamGoogle(ctx context.Context, target provider.Target, req Request) (*Stream, error) {
	cfg := &genai.ClientConfig{
		APIKey:     target.Secret,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if target.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: target.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	var config *genai.GenerateContentConfig
	if req.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: req.System}}},
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	seq := client.Models.GenerateContentStream(streamCtx, target.Model, toGenaiContents(req), config)
	next, stop := iter.Pull2(seq)

	src, err := prime(&googleSource{next: next, stop: stop, cancel: cancel})
	if err != nil {
		apiErr := &APIError{Provider: target.Provider, Message: err.Error(), Err: err}
		var sdkErr genai.APIError
		if errors.As(err, &sdkErr) {
			apiErr.StatusCode = sdkErr.Code
			apiErr.Message = sdkErr.Message
		}
		return nil, apiErr
	}
	return NewStream(src), nil
}

func toGenaiContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return contents
}

// googleSource pulls from the genai response iterator.
type googleSource struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	cancel  context.CancelFunc
	current string
	err     error
	done    bool
}

func (s *googleSource) Next() bool {
	for !s.done {
		resp, err, ok := s.next()
		if !ok {
			s.done = true
			return false
		}
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		if t := genaiText(resp); t != "" {
			s.current = t
			return true
		}
	}
	return false
}

func (s *googleSource) Current() string { return s.current }

func (s *googleSource) Err() error { return s.err }

func (s *googleSource) Close() error {
	s.done = true
	s.stop()
	s.cancel()
	return nil
}

func genaiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && !part.Thought {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}
