package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/quocvuong92/cmd-sage/internal/constants"
	"github.com/quocvuong92/cmd-sage/internal/logging"
	"github.com/quocvuong92/cmd-sage/internal/provider"
)

// ErrEmptyConversation is returned for a request without any user turn.
var ErrEmptyConversation = errors.New("conversation has no messages")

// Client opens streams against any provider family.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a client whose HTTP traffic is logged at debug level.
func NewClient() *Client {
	return &Client{httpClient: logging.NewHTTPClient(constants.DefaultAPITimeout)}
}

// NewClientWithHTTPClient returns a client that sends through httpClient.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// Stream starts a streaming completion for req against target. Errors
// returned here mean no text was produced; errors after that are reported by
// the Stream.
func (c *Client) Stream(ctx context.Context, target provider.Target, req Request) (*Stream, error) {
	if len(req.Messages) == 0 {
		return nil, ErrEmptyConversation
	}

	logging.Debug("opening stream", logging.Fields{
		"provider": target.Provider,
		"family":   target.Family.String(),
		"model":    target.Model,
		"turns":    len(req.Messages),
	})

	switch target.Family {
	case provider.FamilyOpenAI:
		return c.streamOpenAI(ctx, target, req)
	case provider.FamilyAnthropic:
		return c.streamAnthropic(ctx, target, req)
	case provider.FamilyGoogle:
		return c.streamGoogle(ctx, target, req)
	case provider.FamilyOpenAICompatible:
		return c.streamCompat(ctx, target, req)
	default:
		return nil, fmt.Errorf("unsupported provider family %s", target.Family)
	}
}

// eventStream is the iterator shape shared by the SDK streaming types.
type eventStream[T any] interface {
	Next() bool
	Current() T
	Err() error
	Close() error
}

// sdkSource adapts an SDK event stream to ChunkSource, keeping only events
// that carry text.
type sdkSource[T any] struct {
	events  eventStream[T]
	text    func(T) string
	current string
}

func (s *sdkSource[T]) Next() bool {
	for s.events.Next() {
		if t := s.text(s.events.Current()); t != "" {
			s.current = t
			return true
		}
	}
	return false
}

func (s *sdkSource[T]) Current() string { return s.current }

func (s *sdkSource[T]) Err() error { return s.events.Err() }

func (s *sdkSource[T]) Close() error { return s.events.Close() }
