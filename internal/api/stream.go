package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/quocvuong92/cmd-sage/internal/logging"
)

// ChunkSource yields text fragments from a provider. It follows the
// iterator shape of the provider SDKs: Next advances, Current returns the
// fragment, Err reports why iteration stopped.
type ChunkSource interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Stream is an ordered sequence of non-empty text fragments with deferred
// access to their concatenation. It is consumed once.
type Stream struct {
	src     ChunkSource
	current string
	text    strings.Builder
	err     error
	done    bool
	closed  bool
}

// NewStream wraps src.
func NewStream(src ChunkSource) *Stream {
	return &Stream{src: src}
}

// Next advances to the next non-empty fragment. It returns false at the end
// of the stream or on error, and releases the source either way.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	for s.src.Next() {
		chunk := s.src.Current()
		if chunk == "" {
			continue
		}
		s.current = chunk
		s.text.WriteString(chunk)
		return true
	}
	s.current = ""
	s.done = true
	s.err = s.src.Err()
	_ = s.Close()
	return false
}

// Current returns the fragment Next advanced to.
func (s *Stream) Current() string { return s.current }

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error { return s.err }

// Text drains any remaining fragments and returns the full text. The text
// gathered before a failure is returned alongside the error.
func (s *Stream) Text() (string, error) {
	for s.Next() {
	}
	return s.text.String(), s.err
}

// Close releases the underlying source. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.done = true
	return s.src.Close()
}

// primed holds back the first fragment of a source that was advanced once
// to surface request errors early.
type primed struct {
	ChunkSource
	first   string
	pending bool
	started bool
}

// prime advances src once. A source that fails before producing anything is
// closed and its error returned, so a rejected request is reported to the
// caller of Client.Stream instead of to the first Next.
func prime(src ChunkSource) (ChunkSource, error) {
	if src.Next() {
		return &primed{ChunkSource: src, first: src.Current(), pending: true}, nil
	}
	if err := src.Err(); err != nil {
		_ = src.Close()
		return nil, err
	}
	return &primed{ChunkSource: src}, nil
}

func (p *primed) Next() bool {
	if p.pending {
		p.pending = false
		p.started = true
		return true
	}
	p.started = false
	return p.ChunkSource.Next()
}

func (p *primed) Current() string {
	if p.started {
		return p.first
	}
	return p.ChunkSource.Current()
}

// sseSource parses an OpenAI-compatible server-sent event stream.
type sseSource struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	current string
	err     error
	done    bool
	log     *logging.Logger
}

func newSSESource(body io.ReadCloser, provider string) *sseSource {
	return &sseSource{
		body:   body,
		reader: bufio.NewReader(body),
		log:    logging.With(logging.Fields{"component": "sse", "provider": provider}),
	}
}

func (p *sseSource) Next() bool {
	for !p.done {
		line, err := p.reader.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.err = fmt.Errorf("failed to read stream: %w", err)
				p.done = true
				return false
			}
			p.done = true
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			p.done = true
			return false
		}

		var chunk ChatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			p.log.Debug("skipping unparsable stream event", logging.Fields{"error": err.Error(), "data": data})
			continue
		}
		if chunk.Error != nil && chunk.Error.Message != "" {
			p.err = errors.New(chunk.Error.Message)
			p.done = true
			return false
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			p.current = chunk.Choices[0].Delta.Content
			return true
		}
	}
	return false
}

func (p *sseSource) Current() string { return p.current }

func (p *sseSource) Err() error { return p.err }

func (p *sseSource) Close() error { return p.body.Close() }
