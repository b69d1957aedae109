package api

import "fmt"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a system prompt plus the conversation so far. Messages holds
// user and assistant turns only; backends place the system prompt where
// their protocol expects it.
type Request struct {
	System   string
	Messages []Message
}

// HasAssistantTurn reports whether the conversation already contains a model
// reply.
func (r Request) HasAssistantTurn() bool {
	for _, m := range r.Messages {
		if m.Role == RoleAssistant {
			return true
		}
	}
	return false
}

// ChatRequest is the OpenAI-compatible request body.
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// ChatChunk is one streamed OpenAI-compatible event.
type ChatChunk struct {
	ID      string        `json:"id"`
	Choices []ChunkChoice `json:"choices"`
	Error   *ErrorBody    `json:"error,omitempty"`
}

type ChunkChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// ErrorResponse is the error envelope OpenAI-compatible servers return.
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	Message string    `json:"message"`
}

// APIError is a non-success response from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }
